package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finguy/internal/models"
	"finguy/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for creating an account.
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required,min=1,max=100"`
	Type           models.AccountType `json:"type" binding:"required,account_type"`
	InitialBalance decimal.Decimal    `json:"initial_balance" swaggertype:"string" example:"250.00" binding:"gte=0"`
	IsDefault      bool               `json:"is_default"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Type *models.AccountType `json:"type" binding:"omitempty,account_type"`
}

// CreateAccount handles the creation of a new account.
// @Summary     Create an account
// @Description Create an account. The user's first account always becomes the default.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} SuccessResponse{data=models.Account} "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), userID, services.CreateAccountInput{
		Name:           req.Name,
		Type:           req.Type,
		InitialBalance: req.InitialBalance,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "CREATE_ACCOUNT", "account", account.ID,
		map[string]interface{}{"name": account.Name, "type": account.Type, "is_default": account.IsDefault})

	respondCreated(c, account)
}

// GetUserAccounts lists the caller's accounts.
// @Summary     List accounts
// @Description Default account first, then newest first, each with its transaction count
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=[]models.Account} "Accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.GetUserAccounts(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, accounts)
}

// GetAccountByID returns one account.
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} SuccessResponse{data=models.Account} "Account"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, account)
}

// UpdateAccount renames or retypes an account.
// @Summary     Update an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to update"
// @Success     200 {object} SuccessResponse{data=models.Account} "Account updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), userID, accountID, services.AccountUpdateFields{
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "UPDATE_ACCOUNT", "account", account.ID,
		map[string]interface{}{"name": account.Name, "type": account.Type})

	respondOK(c, account)
}

// SetDefaultAccount makes an account the caller's default.
// @Summary     Set the default account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} SuccessResponse{data=models.Account} "New default account"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id}/default [put]
func (h *AccountHandler) SetDefaultAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.SetDefaultAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "SET_DEFAULT_ACCOUNT", "account", account.ID, nil)
	respondOK(c, account)
}

// DeleteAccount removes an account and its transactions.
// @Summary     Delete an account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} SuccessResponse "Account deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	audit(c, h.auditService, userID, "DELETE_ACCOUNT", "account", accountID, nil)
	respondOK(c, gin.H{"id": accountID})
}
