package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"finguy/internal/logger"
	"finguy/internal/models"
)

// auditService appends audit rows next to the ledger writes they describe.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record stores entry. It runs after the audited write has committed, so a
// client that hangs up does not cancel it and a failure is only logged.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	log := logger.Get().With(
		"user_id", entry.UserID,
		"action", entry.Action,
		"resource_type", entry.ResourceType,
		"resource_id", entry.ResourceID,
	)

	row := &models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
	}
	if len(entry.Changes) > 0 {
		data, err := json.Marshal(entry.Changes)
		if err != nil {
			log.Warnw("Dropping unencodable audit changes", "error", err)
		} else {
			row.Changes = string(data)
		}
	}

	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(row).Error; err != nil {
		log.Errorw("Failed to write audit log", "error", err)
	}
}
