// Package errors provides custom error types for the finguy API.
// Service-layer errors use AppError so responses stay consistent and never
// leak internal details to clients.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// HasCode reports whether the first AppError in err's chain carries the
// code of sentinel. Wrapped copies of a sentinel match it.
func HasCode(err error, sentinel *AppError) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == sentinel.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized          = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey         = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrPipelineNotConfigured = &AppError{Code: "PIPELINE_NOT_CONFIGURED", Message: "Pipeline endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Resource was modified concurrently", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrUpstream       = &AppError{Code: "UPSTREAM_FAILURE", Message: "An upstream service failed", StatusCode: http.StatusBadGateway}
)

// User errors.
var (
	ErrUserNotFound       = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrProvisioningFailed = &AppError{Code: "PROVISIONING_FAILED", Message: "Failed to create or find user", StatusCode: http.StatusInternalServerError}
	ErrIncompleteIdentity = &AppError{Code: "INCOMPLETE_IDENTITY", Message: "Session identity is missing required claims", StatusCode: http.StatusUnauthorized}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrInvalidBalance  = &AppError{Code: "INVALID_BALANCE", Message: "Invalid balance amount", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidRecurrence      = &AppError{Code: "INVALID_RECURRENCE", Message: "Recurring transactions require a valid interval", StatusCode: http.StatusBadRequest}
	ErrNotAReceipt            = &AppError{Code: "NOT_A_RECEIPT", Message: "The image does not look like a receipt", StatusCode: http.StatusUnprocessableEntity}
	ErrReceiptScanFailed      = &AppError{Code: "RECEIPT_SCAN_FAILED", Message: "Failed to scan receipt", StatusCode: http.StatusBadGateway}
)

// Goal errors.
var (
	ErrGoalNotFound = &AppError{Code: "GOAL_NOT_FOUND", Message: "Goal not found", StatusCode: http.StatusNotFound}
)

// Conversation errors.
var (
	ErrConversationNotFound = &AppError{Code: "CONVERSATION_NOT_FOUND", Message: "Conversation not found", StatusCode: http.StatusNotFound}
)
