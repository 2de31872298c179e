package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vanledger/vanledger-api/internal/middleware"
	"github.com/vanledger/vanledger-api/internal/services"
)

type SettlementHandler struct {
	settlementService *services.SettlementService
	mergeService      *services.MergeService
	reportService     *services.ReportService
}

func NewSettlementHandler(settlementService *services.SettlementService, mergeService *services.MergeService, reportService *services.ReportService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		mergeService:      mergeService,
		reportService:     reportService,
	}
}

func parseDateParam(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// @Summary List Settlements
// @Description Get settlements filtered by status and date range
// @Tags Settlements
// @Produce json
// @Param status query string false "Filter by status"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /settlements [get]
func (h *SettlementHandler) Index(c *gin.Context) {
	settlements, err := h.settlementService.List(c.Request.Context(),
		c.Query("status"), parseDateParam(c, "from"), parseDateParam(c, "to"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": settlements})
}

// @Summary Get Settlement
// @Description Get one settlement; open periods are recomputed live, approved ones return their frozen record
// @Tags Settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {object} models.Settlement
// @Security BearerAuth
// @Router /settlements/{id} [get]
func (h *SettlementHandler) Show(c *gin.Context) {
	settlement, err := h.settlementService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "settlement not found"})
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// @Summary Create Settlement
// @Description Open (or refresh) the settlement period for a vehicle and date
// @Tags Settlements
// @Accept json
// @Produce json
// @Param settlement body services.CreateSettlementRequest true "Settlement"
// @Success 201 {object} models.Settlement
// @Failure 423 {object} map[string]string
// @Security BearerAuth
// @Router /settlements [post]
func (h *SettlementHandler) Create(c *gin.Context) {
	var req services.CreateSettlementRequest
	if err := BindNestedOrFlat(c, "settlement", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.CreatedBy = middleware.GetUserEmail(c)

	settlement, err := h.settlementService.Create(c.Request.Context(), req)
	if err == services.ErrLockHeld {
		c.JSON(http.StatusLocked, gin.H{"error": "settlement already in progress for this vehicle"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, settlement)
}

// @Summary Submit Settlement
// @Description Move a DRAFT settlement to SUBMITTED with refreshed aggregates
// @Tags Settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {object} models.Settlement
// @Security BearerAuth
// @Router /settlements/{id}/submit [post]
func (h *SettlementHandler) Submit(c *gin.Context) {
	settlement, err := h.settlementService.Submit(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	h.respondTransition(c, settlement, err)
}

type approveRequest struct {
	ActualCash float64 `json:"actual_cash"`
}

// @Summary Approve Settlement
// @Description Freeze the settlement and post its journal entry; re-approval is rejected
// @Tags Settlements
// @Accept json
// @Produce json
// @Param id path string true "Settlement ID"
// @Param body body approveRequest true "Actual cash counted"
// @Success 200 {object} models.Settlement
// @Security BearerAuth
// @Router /settlements/{id}/approve [post]
func (h *SettlementHandler) Approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settlement, err := h.settlementService.Approve(c.Request.Context(), c.Param("id"),
		middleware.GetUserEmail(c), req.ActualCash)
	h.respondTransition(c, settlement, err)
}

type disputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Dispute Settlement
// @Description Flag a SUBMITTED settlement for correction
// @Tags Settlements
// @Accept json
// @Produce json
// @Param id path string true "Settlement ID"
// @Param body body disputeRequest true "Dispute reason"
// @Success 200 {object} models.Settlement
// @Security BearerAuth
// @Router /settlements/{id}/dispute [post]
func (h *SettlementHandler) Dispute(c *gin.Context) {
	var req disputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settlement, err := h.settlementService.Dispute(c.Request.Context(), c.Param("id"),
		req.Reason, middleware.GetUserEmail(c))
	h.respondTransition(c, settlement, err)
}

// @Summary Reopen Settlement
// @Description Return a DISPUTED settlement to DRAFT
// @Tags Settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {object} models.Settlement
// @Security BearerAuth
// @Router /settlements/{id}/reopen [post]
func (h *SettlementHandler) Reopen(c *gin.Context) {
	settlement, err := h.settlementService.Reopen(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	h.respondTransition(c, settlement, err)
}

// @Summary Delete Settlement
// @Description Abandon a DRAFT settlement
// @Tags Settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 204
// @Security BearerAuth
// @Router /settlements/{id} [delete]
func (h *SettlementHandler) Delete(c *gin.Context) {
	err := h.settlementService.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	if err == services.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "settlement not found"})
		return
	}
	if err == services.ErrInvalidState {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "only draft settlements can be deleted"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Merge Duplicate Settlements
// @Description Collapse duplicate settlement periods; pass vehicle_id to repair one vehicle, omit to scan the fleet
// @Tags Settlements
// @Produce json
// @Param vehicle_id query string false "Vehicle ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /settlements/merge_duplicates [post]
func (h *SettlementHandler) MergeDuplicates(c *gin.Context) {
	actor := middleware.GetUserEmail(c)
	if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
		result, err := h.mergeService.MergeVehicle(c.Request.Context(), vehicleID, actor)
		if err == services.ErrNotDuplicated {
			c.JSON(http.StatusOK, gin.H{"message": "no duplicates found"})
			return
		}
		if err == services.ErrLockHeld {
			c.JSON(http.StatusLocked, gin.H{"error": "settlement already in progress for this vehicle"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	results, err := h.mergeService.MergeAll(c.Request.Context(), actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// @Summary Settlement PDF
// @Description Download the printable reconciliation sheet for a settlement
// @Tags Settlements
// @Produce application/pdf
// @Param id path string true "Settlement ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /settlements/{id}/report.pdf [get]
func (h *SettlementHandler) ReportPDF(c *gin.Context) {
	data, filename, err := h.reportService.SettlementPDF(c.Request.Context(), c.Param("id"))
	if err == services.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "settlement not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *SettlementHandler) respondTransition(c *gin.Context, settlement interface{}, err error) {
	if err == services.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "settlement not found"})
		return
	}
	if err == services.ErrInvalidState {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid state transition"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settlement)
}
