package testutil

import (
	"errors"
	"testing"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal fails the test if got and want differ numerically.
func AssertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s, got %s", want, got.String())
	}
}

// AssertBalance reloads the account and checks its stored balance.
func AssertBalance(t *testing.T, db *gorm.DB, accountID, want string) {
	t.Helper()

	var account models.Account
	if err := db.Unscoped().First(&account, "id = ?", accountID).Error; err != nil {
		t.Fatalf("failed to load account %s: %v", accountID, err)
	}
	AssertDecimal(t, account.Balance, want)
}
