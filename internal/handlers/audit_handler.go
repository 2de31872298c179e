package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vanledger/vanledger-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Get recent audit entries, optionally filtered by date range
// @Tags Audits
// @Produce json
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.auditService.List(c.Request.Context(),
		parseDateParam(c, "from"), parseDateParam(c, "to"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": logs})
}

// @Summary Entity Audit Trail
// @Description Get the audit trail of a single entity
// @Tags Audits
// @Produce json
// @Param entity path string true "Entity name"
// @Param id path string true "Entity ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits/{entity}/{id} [get]
func (h *AuditHandler) History(c *gin.Context) {
	logs, err := h.auditService.History(c.Request.Context(), c.Param("entity"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": logs})
}
