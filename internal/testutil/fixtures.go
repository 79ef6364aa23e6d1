package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finguy/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal literal, failing loudly on typos in test tables.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a unique external id and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithIdentity(t, db, fmt.Sprintf("user_ext_%d", n), fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithIdentity creates a user with the given external id and email.
func CreateTestUserWithIdentity(t *testing.T, db *gorm.DB, externalID, email string) *models.User {
	t.Helper()

	user := &models.User{
		ExternalID: externalID,
		Email:      email,
		Name:       "Test User",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a current account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, decimal.Zero)
}

// CreateTestAccountWithBalance creates a non-default current account with the given balance.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance decimal.Decimal) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Account %d", nextID()),
		Type:    models.AccountTypeCurrent,
		Balance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction inserts a transaction row without touching the
// account balance.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Date:      time.Now(),
		Category:  "other-expense",
		Status:    models.TransactionStatusCompleted,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction inserts a recurring template due at next.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID, accountID string, interval models.RecurringInterval, amount decimal.Decimal, next time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:            userID,
		AccountID:         accountID,
		Type:              models.TransactionTypeExpense,
		Amount:            amount,
		Description:       "Rent",
		Date:              next.AddDate(0, -1, 0),
		Category:          "housing",
		IsRecurring:       true,
		RecurringInterval: &interval,
		NextRecurringDate: &next,
		Status:            models.TransactionStatusCompleted,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return tx
}

// CreateTestGoal creates a goal with the given target and saved amounts.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, target, saved decimal.Decimal) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:       userID,
		Title:        fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount: target,
		SavedAmount:  saved,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestConversation creates a conversation holding the given messages.
func CreateTestConversation(t *testing.T, db *gorm.DB, userID string, messages ...models.Message) *models.Conversation {
	t.Helper()

	conv := &models.Conversation{
		UserID: userID,
		Title:  fmt.Sprintf("Test Conversation %d", nextID()),
	}
	base := time.Now().Add(-time.Hour)
	for i := range messages {
		if messages[i].Timestamp.IsZero() {
			messages[i].Timestamp = base.Add(time.Duration(i) * time.Second)
		}
	}
	conv.Messages = messages
	if err := db.Create(conv).Error; err != nil {
		t.Fatalf("failed to create test conversation: %v", err)
	}
	return conv
}
