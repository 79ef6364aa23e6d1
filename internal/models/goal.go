package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Goal is a savings target owned by a user.
type Goal struct {
	Base
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string          `gorm:"not null" json:"title"`
	TargetAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	SavedAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"saved_amount"`
	IsCompleted  bool            `gorm:"-" json:"is_completed"`
}

// Completed reports whether the saved amount has reached the target.
func (g *Goal) Completed() bool {
	return g.SavedAmount.GreaterThanOrEqual(g.TargetAmount)
}

// AfterFind derives IsCompleted for loaded rows.
func (g *Goal) AfterFind(tx *gorm.DB) error {
	g.IsCompleted = g.Completed()
	return nil
}

// AfterSave keeps IsCompleted current after creates and updates.
func (g *Goal) AfterSave(tx *gorm.DB) error {
	g.IsCompleted = g.Completed()
	return nil
}
