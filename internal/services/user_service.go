package services

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
)

// userService resolves external identities to local users.
type userService struct {
	db    *gorm.DB
	group singleflight.Group
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// ProvisionUser returns the local user for identity, creating it on first
// sight. Lookup order is external id, then email (which links the external
// id to a pre-existing profile), then insert. An insert that loses a race to
// another request re-resolves instead of failing.
func (s *userService) ProvisionUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.ExternalID == "" || identity.NormalizedEmail() == "" {
		return nil, apperrors.ErrIncompleteIdentity
	}

	v, err, _ := s.group.Do(identity.ExternalID, func() (interface{}, error) {
		return s.provision(ctx, identity)
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing a flight must not share the pointer.
	user := *v.(*models.User)
	return &user, nil
}

func (s *userService) provision(ctx context.Context, identity models.Identity) (*models.User, error) {
	db := s.db.WithContext(ctx)
	email := identity.NormalizedEmail()

	user, err := findUser(db, "external_id = ?", identity.ExternalID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = findUser(db, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		updates := map[string]interface{}{
			"external_id": identity.ExternalID,
			"name":        identity.DisplayName(),
			"image_url":   identity.ImageURL,
		}
		if err := db.Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.recoverFromConflict(db, identity)
			}
			return nil, apperrors.Wrap(apperrors.ErrProvisioningFailed, err)
		}
		return user, nil
	}

	user = &models.User{
		ExternalID: identity.ExternalID,
		Email:      email,
		Name:       identity.DisplayName(),
		ImageURL:   identity.ImageURL,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return s.recoverFromConflict(db, identity)
		}
		return nil, apperrors.Wrap(apperrors.ErrProvisioningFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return s.recoverFromConflict(db, identity)
	}
	return user, nil
}

// recoverFromConflict loads the row a concurrent insert created.
func (s *userService) recoverFromConflict(db *gorm.DB, identity models.Identity) (*models.User, error) {
	user, err := findUser(db, "external_id = ?", identity.ExternalID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = findUser(db, "email = ?", identity.NormalizedEmail())
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return nil, apperrors.ErrProvisioningFailed
}

// findUser returns nil, nil when no row matches.
func findUser(db *gorm.DB, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrProvisioningFailed, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}
