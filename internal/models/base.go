package models

import (
	"time"

	"gorm.io/gorm"

	"finguy/internal/uuid"
)

// Base contains the ID and timestamps shared by the ledger tables. Deletes
// are soft.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUIDv7 unless the caller chose an ID.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	return nil
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.New()
	}
}
