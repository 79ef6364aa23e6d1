package handlers

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
	"finguy/internal/pagination"
	"finguy/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	receiptService     services.ReceiptServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, receiptService services.ReceiptServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		receiptService:     receiptService,
		auditService:       auditService,
	}
}

// TransactionRequest is the full transaction form, used for create and update.
type TransactionRequest struct {
	AccountID         string                    `json:"account_id" binding:"required,uuid"`
	Type              models.TransactionType    `json:"type" binding:"required,transaction_type"`
	Amount            decimal.Decimal           `json:"amount" swaggertype:"string" example:"42.50" binding:"gt=0"`
	Description       string                    `json:"description" binding:"max=500"`
	Date              *string                   `json:"date"`
	Category          string                    `json:"category" binding:"required,max=50"`
	ReceiptURL        string                    `json:"receipt_url" binding:"omitempty,url,max=2048"`
	IsRecurring       bool                      `json:"is_recurring"`
	RecurringInterval *models.RecurringInterval `json:"recurring_interval" binding:"omitempty,recurring_interval"`
}

func (r *TransactionRequest) toInput() (services.TransactionInput, error) {
	input := services.TransactionInput{
		AccountID:         r.AccountID,
		Type:              r.Type,
		Amount:            r.Amount,
		Description:       r.Description,
		Category:          r.Category,
		ReceiptURL:        r.ReceiptURL,
		IsRecurring:       r.IsRecurring,
		RecurringInterval: r.RecurringInterval,
	}
	if r.Date != nil && *r.Date != "" {
		parsed, err := parseFlexibleTime(*r.Date)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.Date = parsed
	}
	return input, nil
}

// BulkDeleteRequest lists the transactions to delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record income or an expense and apply it to the account balance
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} SuccessResponse{data=models.Transaction} "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "CREATE_TRANSACTION", "transaction", transaction.ID,
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String(), "account_id": transaction.AccountID})

	respondCreated(c, transaction)
}

// GetUserTransactions handles the retrieval of all transactions for the authenticated user
// @Summary     List transactions
// @Description Paginated, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Param       account_id   query string false "Filter by account ID"
// @Param       from_date    query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date      query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type         query string false "INCOME or EXPENSE"
// @Param       category     query string false "Filter by category"
// @Param       is_recurring query bool   false "Filter recurring templates"
// @Success     200 {object} SuccessResponse{data=pagination.PageResponse[models.Transaction]} "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.IsValid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be INCOME or EXPENSE")
		}
		filter.Type = &txType
	}

	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}

	if v := c.Query("account_id"); v != "" {
		filter.AccountID = &v
	}

	if v := c.Query("is_recurring"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_recurring")
		}
		filter.IsRecurring = &b
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} SuccessResponse{data=models.Transaction} "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, transaction)
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Replace every field of a transaction. Only the net balance change is applied.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} SuccessResponse{data=models.Transaction} "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, transactionID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "UPDATE_TRANSACTION", "transaction", transaction.ID,
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String(), "account_id": transaction.AccountID})

	respondOK(c, transaction)
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction and reverse its balance effect
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} SuccessResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "DELETE_TRANSACTION", "transaction", transactionID, nil)
	respondOK(c, gin.H{"id": transactionID})
}

// BulkDeleteTransactions deletes several transactions at once.
// @Summary     Bulk delete transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkDeleteRequest true "Transaction IDs"
// @Success     200 {object} SuccessResponse "Number of deleted transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	deleted, err := h.transactionService.BulkDeleteTransactions(c.Request.Context(), userID, req.IDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "BULK_DELETE_TRANSACTIONS", "transaction", "",
		map[string]interface{}{"requested": len(req.IDs), "deleted": deleted})

	respondOK(c, gin.H{"deleted": deleted})
}

// ScanReceipt extracts a transaction draft from a receipt image.
// @Summary     Scan a receipt
// @Description Upload a receipt image (max 5MB). Returns a draft; nothing is saved.
// @Tags        transactions
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "Receipt image"
// @Success     200 {object} SuccessResponse{data=services.ScannedReceipt} "Extracted draft"
// @Failure     400 {object} ErrorResponse "Invalid upload"
// @Failure     422 {object} ErrorResponse "Not a receipt"
// @Failure     502 {object} ErrorResponse "Scan failed"
// @Router      /transactions/scan-receipt [post]
func (h *TransactionHandler) ScanReceipt(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "receipt file is required"))
		return
	}
	if header.Size > services.MaxReceiptBytes {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "receipt image must be 5MB or smaller"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, services.MaxReceiptBytes+1))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	draft, err := h.receiptService.ScanReceipt(c.Request.Context(), image, header.Header.Get("Content-Type"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, draft)
}
