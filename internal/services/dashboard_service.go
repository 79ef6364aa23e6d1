package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
)

// dashboardService aggregates the financial overview in SQL.
type dashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db, now: time.Now}
}

// GetSummary returns balances, this month's income and expenses, and goal progress.
func (s *dashboardService) GetSummary(ctx context.Context, userID string) (*FinancialSummary, error) {
	db := s.db.WithContext(ctx)
	summary := &FinancialSummary{}

	var accounts struct {
		Total decimal.Decimal
		Count int64
	}
	if err := db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0) AS total, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.TotalBalance = accounts.Total
	summary.AccountCount = accounts.Count

	if err := db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Count(&summary.RecentTransactionsCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var month struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}
	if err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS income, "+
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS expense",
			models.TransactionTypeIncome, models.TransactionTypeExpense).
		Where("user_id = ? AND date >= ?", userID, monthStart).
		Scan(&month).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.MonthIncome = month.Income
	summary.MonthExpense = month.Expense

	var goals struct {
		Count     int64
		Completed int64
		Target    decimal.Decimal
		Saved     decimal.Decimal
	}
	if err := db.Model(&models.Goal{}).
		Select("COUNT(*) AS count, "+
			"COALESCE(SUM(CASE WHEN saved_amount >= target_amount THEN 1 ELSE 0 END), 0) AS completed, "+
			"COALESCE(SUM(target_amount), 0) AS target, "+
			"COALESCE(SUM(saved_amount), 0) AS saved").
		Where("user_id = ?", userID).
		Scan(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.TotalGoals = goals.Count
	summary.CompletedGoals = goals.Completed
	summary.TotalGoalTarget = goals.Target
	summary.TotalGoalSaved = goals.Saved

	return summary, nil
}
