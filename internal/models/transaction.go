package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// SignedAmount returns +amount for income and -amount for expense.
func (t TransactionType) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

// TransactionStatus tracks whether a transaction has settled.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction represents a financial transaction in the system.
// Amount is always positive; Type carries the sign.
type Transaction struct {
	Base
	UserID            string             `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID         string             `gorm:"type:uuid;not null;index" json:"account_id"`
	Type              TransactionType    `gorm:"not null" json:"type"`
	Amount            decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description       string             `gorm:"not null;default:''" json:"description"`
	Date              time.Time          `gorm:"not null" json:"date"`
	Category          string             `gorm:"not null" json:"category"`
	ReceiptURL        string             `gorm:"not null;default:''" json:"receipt_url,omitempty"`
	IsRecurring       bool               `gorm:"not null;default:false" json:"is_recurring"`
	RecurringInterval *RecurringInterval `json:"recurring_interval,omitempty"`
	NextRecurringDate *time.Time         `json:"next_recurring_date,omitempty"`
	LastProcessed     *time.Time         `json:"last_processed,omitempty"`
	Status            TransactionStatus  `gorm:"not null;default:'COMPLETED'" json:"status"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// SignedAmount is the balance effect of the transaction.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Type.SignedAmount(t.Amount)
}
