package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user. The first account a user
// opens is always the default; marking a later account as default clears the
// flag on the others in the same transaction.
func (s *accountService) CreateAccount(ctx context.Context, userID string, input CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type must be CURRENT or SAVINGS")
	}
	if input.InitialBalance.IsNegative() {
		return nil, apperrors.ErrInvalidBalance
	}

	account := &models.Account{
		UserID:    userID,
		Name:      name,
		Type:      input.Type,
		Balance:   input.InitialBalance.Round(2),
		IsDefault: input.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing == 0 {
			account.IsDefault = true
		}

		if account.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}

		if err := tx.Create(account).Error; err != nil {
			return accountWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts lists a user's accounts, default first, each with its
// transaction count.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	db := s.db.WithContext(ctx)

	var accounts []models.Account
	if err := db.Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type countRow struct {
		AccountID string
		Total     int64
	}
	var counts []countRow
	if err := db.Model(&models.Transaction{}).
		Select("account_id, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("account_id").
		Scan(&counts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byAccount := make(map[string]int64, len(counts))
	for _, c := range counts {
		byAccount[c.AccountID] = c.Total
	}
	for i := range accounts {
		accounts[i].TransactionCount = byAccount[accounts[i].ID]
	}

	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := findAccount(s.db.WithContext(ctx), userID, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ?", account.ID).
		Count(&account.TransactionCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// UpdateAccount renames or retypes an account. Balance and default status
// have dedicated operations.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	db := s.db.WithContext(ctx)
	account, err := findAccount(db, userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		updates["name"] = name
	}
	if fields.Type != nil {
		if !fields.Type.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type must be CURRENT or SAVINGS")
		}
		updates["type"] = *fields.Type
	}

	if len(updates) > 0 {
		if err := db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		if err := db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// SetDefaultAccount makes accountID the user's only default account.
func (s *accountService) SetDefaultAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	var account *models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var err error
		account, err = findAccount(tx, userID, accountID)
		if err != nil {
			return err
		}
		if account.IsDefault {
			return nil
		}

		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(account).Update("is_default", true).Error; err != nil {
			return accountWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account and its transactions. Deleting the default
// account promotes the most recently created remaining account.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		account, err := findAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		if err := tx.Where("account_id = ?", account.ID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if !account.IsDefault {
			return nil
		}

		var next models.Account
		err = tx.Where("user_id = ?", userID).Order("created_at DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
			return accountWriteError(err)
		}
		return nil
	})
}

// lockUser serialises default-account changes per user. SQLite ignores the
// locking clause and relies on its single writer instead.
func lockUser(tx *gorm.DB, userID string) error {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID string) error {
	if err := tx.Model(&models.Account{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// accountWriteError maps a violation of the one-default-per-user index to a
// conflict. Row locks prevent it on Postgres unless a writer skipped them.
func accountWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.WithMessage(apperrors.ErrConflict, "another default account was set concurrently")
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func findAccount(db *gorm.DB, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// applyBalanceDelta adds delta to the stored balance in a single statement.
func applyBalanceDelta(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	result := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
