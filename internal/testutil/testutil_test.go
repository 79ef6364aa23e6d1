package testutil_test

import (
	"testing"

	"finguy/internal/errors"
	"finguy/internal/models"
	"finguy/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "accounts", "transactions", "goals", "conversations", "messages", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, testutil.Money("50.25"))
	testutil.AssertBalance(t, db, account.ID, "50.25")

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionTypeIncome, testutil.Money("10"))
	testutil.AssertDecimal(t, tx.Amount, "10")

	goal := testutil.CreateTestGoal(t, db, user.ID, testutil.Money("100"), testutil.Money("100"))
	if !goal.IsCompleted {
		t.Error("expected goal at target to be completed")
	}

	conv := testutil.CreateTestConversation(t, db, user.ID,
		models.Message{Role: models.RoleUser, Content: "hi"},
		models.Message{Role: models.RoleAssistant, Content: "hello"},
	)
	var msgCount int64
	db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&msgCount)
	if msgCount != 2 {
		t.Errorf("expected 2 messages, got %d", msgCount)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
