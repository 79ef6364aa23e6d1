package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
)

// goalService handles savings goals. Every query is scoped to the owner.
type goalService struct {
	db *gorm.DB
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db}
}

// CreateGoal creates a goal with a positive target and a non-negative
// starting amount.
func (s *goalService) CreateGoal(ctx context.Context, userID, title string, targetAmount, savedAmount decimal.Decimal) (*models.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if !targetAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if savedAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "saved amount cannot be negative")
	}

	goal := &models.Goal{
		UserID:       userID,
		Title:        title,
		TargetAmount: targetAmount.Round(2),
		SavedAmount:  savedAmount.Round(2),
	}
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals lists a user's goals, newest first.
func (s *goalService) GetUserGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	goals := []models.Goal{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goals, nil
}

// GetGoalByID retrieves a goal by ID for a specific user
func (s *goalService) GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal patches the provided fields.
func (s *goalService) UpdateGoal(ctx context.Context, userID, goalID string, fields GoalUpdateFields) (*models.Goal, error) {
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title cannot be empty")
		}
		updates["title"] = title
	}
	if fields.TargetAmount != nil {
		if !fields.TargetAmount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
		}
		updates["target_amount"] = fields.TargetAmount.Round(2)
	}
	if fields.SavedAmount != nil {
		if fields.SavedAmount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "saved amount cannot be negative")
		}
		updates["saved_amount"] = fields.SavedAmount.Round(2)
	}

	if len(updates) > 0 {
		db := s.db.WithContext(ctx)
		if err := db.Model(goal).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := db.Where("id = ?", goal.ID).First(goal).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return goal, nil
}

// DeleteGoal deletes a user's goal.
func (s *goalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.Goal{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrGoalNotFound
	}
	return nil
}

// AddMoney increments the saved amount in one statement, so concurrent
// deposits never overwrite each other.
func (s *goalService) AddMoney(ctx context.Context, userID, goalID string, amount decimal.Decimal) (*models.Goal, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	db := s.db.WithContext(ctx)
	result := db.Model(&models.Goal{}).
		Where("id = ? AND user_id = ?", goalID, userID).
		Update("saved_amount", gorm.Expr("COALESCE(saved_amount, 0) + ?", amount.Round(2)))
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrGoalNotFound
	}

	return s.GetGoalByID(ctx, userID, goalID)
}
