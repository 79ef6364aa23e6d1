package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
	"finguy/internal/pagination"
)

// transactionService handles transaction-related business logic. Every write
// moves the owning account balance by the transaction's signed amount inside
// the same database transaction.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// normalize validates input and fills defaults. It returns the next
// occurrence for recurring transactions.
func (in *TransactionInput) normalize(now time.Time) (*time.Time, error) {
	if in.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	if !in.Type.IsValid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	in.Amount = in.Amount.Round(2)
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if in.Date.IsZero() {
		in.Date = now
	}

	if !in.IsRecurring {
		in.RecurringInterval = nil
		return nil, nil
	}
	if in.RecurringInterval == nil || !in.RecurringInterval.IsValid() {
		return nil, apperrors.ErrInvalidRecurrence
	}
	next := in.RecurringInterval.Next(in.Date)
	return &next, nil
}

// CreateTransaction records a transaction and applies it to the account balance.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error) {
	next, err := input.normalize(time.Now())
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:            userID,
		AccountID:         input.AccountID,
		Type:              input.Type,
		Amount:            input.Amount,
		Description:       input.Description,
		Date:              input.Date,
		Category:          input.Category,
		ReceiptURL:        input.ReceiptURL,
		IsRecurring:       input.IsRecurring,
		RecurringInterval: input.RecurringInterval,
		NextRecurringDate: next,
		Status:            models.TransactionStatusCompleted,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findAccount(tx, userID, input.AccountID); err != nil {
			return err
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return applyBalanceDelta(tx, transaction.AccountID, transaction.SignedAmount())
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// rescheduled returns the next occurrence for an edited transaction. An
// unchanged recurrence keeps its stored schedule. A changed one restarts from
// the new date but never lands on a period the processor already booked.
func rescheduled(stored *models.Transaction, input TransactionInput, next *time.Time) *time.Time {
	if next == nil {
		return nil
	}
	if stored.IsRecurring && stored.NextRecurringDate != nil && stored.RecurringInterval != nil &&
		*stored.RecurringInterval == *input.RecurringInterval && stored.Date.Equal(input.Date) {
		kept := *stored.NextRecurringDate
		return &kept
	}
	if stored.LastProcessed != nil {
		advanced := *next
		for !advanced.After(*stored.LastProcessed) {
			advanced = input.RecurringInterval.Next(advanced)
		}
		return &advanced
	}
	return next
}

// UpdateTransaction replaces a transaction's fields. Only the net balance
// change is applied; moving a transaction between accounts reverses it on the
// old account and applies it on the new one.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, input TransactionInput) (*models.Transaction, error) {
	next, err := input.normalize(time.Now())
	if err != nil {
		return nil, err
	}

	var transaction models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", transactionID, userID).
			First(&transaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.AccountID != transaction.AccountID {
			if _, err := findAccount(tx, userID, input.AccountID); err != nil {
				return err
			}
		}

		oldAccountID := transaction.AccountID
		oldDelta := transaction.SignedAmount()
		newDelta := input.Type.SignedAmount(input.Amount)

		updates := map[string]interface{}{
			"account_id":          input.AccountID,
			"type":                input.Type,
			"amount":              input.Amount,
			"description":         input.Description,
			"date":                input.Date,
			"category":            input.Category,
			"receipt_url":         input.ReceiptURL,
			"is_recurring":        input.IsRecurring,
			"recurring_interval":  input.RecurringInterval,
			"next_recurring_date": rescheduled(&transaction, input, next),
		}
		if err := tx.Model(&transaction).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if oldAccountID == input.AccountID {
			return applyBalanceDelta(tx, oldAccountID, newDelta.Sub(oldDelta))
		}
		if err := applyBalanceDelta(tx, oldAccountID, oldDelta.Neg()); err != nil {
			return err
		}
		return applyBalanceDelta(tx, input.AccountID, newDelta)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(ctx, userID, transactionID)
}

// GetUserTransactions retrieves a paginated, filtered list of a user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page = page.Normalize()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Session(&gorm.Session{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Session(&gorm.Session{}).
		Scopes(page.Scope()).
		Order("date DESC").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *f.IsRecurring)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Account").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction deletes a transaction and reverses its balance effect.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	deleted, err := s.deleteTransactions(ctx, userID, []string{transactionID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// BulkDeleteTransactions deletes the caller's transactions among ids and
// reverses their balance effects. Unknown or foreign ids are ignored.
func (s *transactionService) BulkDeleteTransactions(ctx context.Context, userID string, transactionIDs []string) (int64, error) {
	if len(transactionIDs) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one transaction ID is required")
	}
	return s.deleteTransactions(ctx, userID, transactionIDs)
}

func (s *transactionService) deleteTransactions(ctx context.Context, userID string, ids []string) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transactions []models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND user_id = ?", ids, userID).
			Find(&transactions).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(transactions) == 0 {
			return nil
		}

		reversals := make(map[string]decimal.Decimal)
		found := make([]string, 0, len(transactions))
		for i := range transactions {
			t := &transactions[i]
			reversals[t.AccountID] = reversals[t.AccountID].Sub(t.SignedAmount())
			found = append(found, t.ID)
		}

		result := tx.Where("id IN ?", found).Delete(&models.Transaction{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected != int64(len(found)) {
			return apperrors.WithMessage(apperrors.ErrConflict, "transactions were deleted concurrently")
		}
		deleted = result.RowsAffected

		for accountID, delta := range reversals {
			if err := applyBalanceDelta(tx, accountID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
