package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanledger/vanledger-api/internal/middleware"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/services"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
}

func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// @Summary Post Transaction
// @Description Ingest one transaction; the server assigns the arrival timestamp. Replays of the same ID return 409 and leave the stored row untouched.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param transaction body models.Transaction true "Transaction"
// @Success 201 {object} models.Transaction
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var txn models.Transaction
	if err := c.ShouldBindJSON(&txn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.transactionService.Post(c.Request.Context(), &txn)
	if err == services.ErrDuplicate {
		c.JSON(http.StatusConflict, gin.H{"error": "transaction already posted", "id": txn.ID})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// @Summary Sync Transactions
// @Description Batch upload from an offline client; one outcome per item, duplicates never abort the batch
// @Tags Transactions
// @Accept json
// @Produce json
// @Param transactions body []models.Transaction true "Transactions"
// @Success 200 {array} services.SyncOutcome
// @Security BearerAuth
// @Router /transactions/sync [post]
func (h *TransactionHandler) Sync(c *gin.Context) {
	var txns []models.Transaction
	if err := c.ShouldBindJSON(&txns); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcomes := h.transactionService.Sync(c.Request.Context(), txns)
	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

// @Summary Get Transaction
// @Description Get one transaction by ID
// @Tags Transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Show(c *gin.Context) {
	txn, err := h.transactionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, txn)
}

type reverseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Reverse Transaction
// @Description Post a negating counter-transaction and mark the original VOID. Posted rows are never edited.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param body body reverseRequest true "Reason"
// @Success 201 {object} models.Transaction
// @Security BearerAuth
// @Router /transactions/{id}/reverse [post]
func (h *TransactionHandler) Reverse(c *gin.Context) {
	var req reverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reversal, err := h.transactionService.Reverse(c.Request.Context(), c.Param("id"),
		middleware.GetUserEmail(c), req.Reason)
	if err == services.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if err == services.ErrInvalidState {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "only posted transactions can be reversed"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reversal)
}
