package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/services"
)

type AccountHandler struct {
	ledgerService *services.LedgerService
}

func NewAccountHandler(ledgerService *services.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerService: ledgerService}
}

// @Summary List Accounts
// @Description Get the chart of accounts with current balances
// @Tags Accounts
// @Produce json
// @Success 200 {array} models.Account
// @Security BearerAuth
// @Router /accounts [get]
func (h *AccountHandler) Index(c *gin.Context) {
	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// @Summary Get Account
// @Description Get one account by ID
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} models.Account
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *AccountHandler) Show(c *gin.Context) {
	account, err := h.ledgerService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// @Summary Create Account
// @Description Add an account to the chart of accounts
// @Tags Accounts
// @Accept json
// @Produce json
// @Param account body models.Account true "Account"
// @Success 201 {object} models.Account
// @Security BearerAuth
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var account models.Account
	if err := BindNestedOrFlat(c, "account", &account); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ledgerService.CreateAccount(c.Request.Context(), &account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, account)
}

// @Summary Recalculate Balances
// @Description Recompute every account balance from the journal in one pass
// @Tags Accounts
// @Produce json
// @Success 200 {object} services.RecalculateResult
// @Security BearerAuth
// @Router /accounts/recalculate_balances [post]
func (h *AccountHandler) RecalculateBalances(c *gin.Context) {
	result, err := h.ledgerService.RecalculateAccountBalances(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
