package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finguy/internal/errors"
	"finguy/internal/logger"
	"finguy/internal/models"
)

const defaultRecurringBatch = 100

// recurringService materialises recurring templates into ordinary
// transactions. Each occurrence is claimed with a conditional update so
// concurrent workers never book the same occurrence twice.
type recurringService struct {
	db *gorm.DB
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB) RecurringServicer {
	return &recurringService{db: db}
}

// DueTransactionIDs lists recurring templates whose next occurrence is at or
// before now, oldest first.
func (s *recurringService) DueTransactionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultRecurringBatch
	}
	ids := []string{}
	if err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("is_recurring = ? AND next_recurring_date IS NOT NULL AND next_recurring_date <= ?", true, now).
		Order("next_recurring_date ASC").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ids, nil
}

// ProcessRecurringTransaction books one due occurrence of the template. It
// returns nil, nil when the occurrence is not due or another worker already
// claimed it.
func (s *recurringService) ProcessRecurringTransaction(ctx context.Context, transactionID string, now time.Time) (*models.Transaction, error) {
	var booked *models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tmpl models.Transaction
		if err := tx.Where("id = ? AND is_recurring = ?", transactionID, true).First(&tmpl).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if tmpl.RecurringInterval == nil || tmpl.NextRecurringDate == nil {
			return apperrors.WithMessage(apperrors.ErrInvalidRecurrence, "transaction has no recurrence schedule")
		}
		due := *tmpl.NextRecurringDate
		if due.After(now) {
			return nil
		}

		next := tmpl.RecurringInterval.Next(due)
		claim := tx.Model(&models.Transaction{}).
			Where("id = ? AND next_recurring_date = ?", tmpl.ID, due).
			Updates(map[string]interface{}{
				"next_recurring_date": next,
				"last_processed":      now,
			})
		if claim.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, claim.Error)
		}
		if claim.RowsAffected == 0 {
			return nil
		}

		occurrence := &models.Transaction{
			UserID:      tmpl.UserID,
			AccountID:   tmpl.AccountID,
			Type:        tmpl.Type,
			Amount:      tmpl.Amount,
			Description: tmpl.Description,
			Date:        due,
			Category:    tmpl.Category,
			Status:      models.TransactionStatusCompleted,
		}
		if err := tx.Create(occurrence).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := applyBalanceDelta(tx, occurrence.AccountID, occurrence.SignedAmount()); err != nil {
			return err
		}
		booked = occurrence
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booked, nil
}

// ProcessDue runs one pass over the due templates. Failures are counted and
// logged; they do not stop the pass.
func (s *recurringService) ProcessDue(ctx context.Context, now time.Time, limit int) (*RecurringRunSummary, error) {
	ids, err := s.DueTransactionIDs(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	summary := &RecurringRunSummary{Due: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		booked, err := s.ProcessRecurringTransaction(ctx, id, now)
		switch {
		case err != nil:
			summary.Failed++
			logger.Get().Errorw("Failed to process recurring transaction", "transaction_id", id, "error", err)
		case booked == nil:
			summary.Skipped++
		default:
			summary.Processed++
		}
	}
	return summary, nil
}
