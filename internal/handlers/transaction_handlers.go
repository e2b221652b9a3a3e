package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/services"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TransactionHandler holds the transaction service.
type TransactionHandler struct {
	transactionService services.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ts services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: ts}
}

// GetTransactions handles the admin transaction listing with pagination.
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	transactions, totalCount, err := h.transactionService.ListTransactions(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetTransactions: Error from transactionService.ListTransactions")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch transactions.", "Internal error"))
		return
	}

	if transactions == nil {
		transactions = []models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      transactions,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetTransactionByID handles fetching a single transaction.
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid transaction ID format.", err.Error()))
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(transactionID)
	if err != nil {
		utils.LogError(err, "GetTransactionByID: Error from transactionService.GetTransactionByID")
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Transaction not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch transaction.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, transaction)
}

// UpdateTransactionStatus moves a pending transaction to completed or
// failed. Completing a sign-up payment can still lose the race for the
// last slot, which surfaces as a conflict.
func (h *TransactionHandler) UpdateTransactionStatus(c *gin.Context) {
	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid transaction ID format.", err.Error()))
		return
	}

	var req services.UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateTransactionStatus: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateStatus(c.Request.Context(), transactionID, req.Status)
	if err != nil {
		utils.LogError(err, "UpdateTransactionStatus: Error from transactionService.UpdateStatus")
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Transaction not found.", err.Error()))
		} else if errors.Is(err, services.ErrTransactionFinalized) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Transaction is no longer pending.", err.Error()))
		} else if errors.Is(err, services.ErrActivityFull) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "The activity filled up before payment completed; the transaction was marked failed.", err.Error()))
		} else if errors.Is(err, services.ErrActivityNotFound) || errors.Is(err, services.ErrSignUpNotFound) || errors.Is(err, services.ErrMembershipFeeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "The record this transaction pays for no longer exists.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidTransaction) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update transaction.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, transaction)
}
