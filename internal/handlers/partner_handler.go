package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/services"
)

type PartnerHandler struct {
	ledgerService *services.LedgerService
}

func NewPartnerHandler(ledgerService *services.LedgerService) *PartnerHandler {
	return &PartnerHandler{ledgerService: ledgerService}
}

// @Summary List Partners
// @Description Get trading partners, optionally filtered by role
// @Tags Partners
// @Produce json
// @Param role query string false "customer or supplier"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /partners [get]
func (h *PartnerHandler) Index(c *gin.Context) {
	partners, err := h.ledgerService.ListPartners(c.Request.Context(), c.Query("role"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}

// @Summary Get Partner
// @Description Get one partner by ID
// @Tags Partners
// @Produce json
// @Param id path string true "Partner ID"
// @Success 200 {object} models.Partner
// @Security BearerAuth
// @Router /partners/{id} [get]
func (h *PartnerHandler) Show(c *gin.Context) {
	partner, err := h.ledgerService.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "partner not found"})
		return
	}
	c.JSON(http.StatusOK, partner)
}

// @Summary Create Partner
// @Description Register a trading partner
// @Tags Partners
// @Accept json
// @Produce json
// @Param partner body models.Partner true "Partner"
// @Success 201 {object} models.Partner
// @Security BearerAuth
// @Router /partners [post]
func (h *PartnerHandler) Create(c *gin.Context) {
	var partner models.Partner
	if err := BindNestedOrFlat(c, "partner", &partner); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ledgerService.CreatePartner(c.Request.Context(), &partner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, partner)
}

// @Summary Update Partner
// @Description Update a partner's master data
// @Tags Partners
// @Accept json
// @Produce json
// @Param id path string true "Partner ID"
// @Param partner body models.Partner true "Partner"
// @Success 200 {object} models.Partner
// @Security BearerAuth
// @Router /partners/{id} [put]
func (h *PartnerHandler) Update(c *gin.Context) {
	existing, err := h.ledgerService.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "partner not found"})
		return
	}

	var partner models.Partner
	if err := c.ShouldBindJSON(&partner); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	partner.ID = existing.ID
	partner.Balance = existing.Balance
	partner.CreatedAt = existing.CreatedAt
	if err := h.ledgerService.UpdatePartner(c.Request.Context(), &partner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, partner)
}

// @Summary Partner Balance
// @Description Derive a partner's balance from its full transaction history
// @Tags Partners
// @Produce json
// @Param id path string true "Partner ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /partners/{id}/balance [get]
func (h *PartnerHandler) Balance(c *gin.Context) {
	id := c.Param("id")
	balance, err := h.ledgerService.DerivePartnerBalance(c.Request.Context(), id)
	if err == services.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "partner not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"partner_id": id, "balance": balance})
}
