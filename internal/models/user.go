package models

import "strings"

// User is the local profile mirrored from the external identity provider.
type User struct {
	Base
	ExternalID string `gorm:"uniqueIndex;not null" json:"external_id"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	Name       string `gorm:"not null;default:''" json:"name"`
	ImageURL   string `gorm:"not null;default:''" json:"image_url"`
}

// Identity is the caller as asserted by the identity provider's session token.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	ImageURL   string
}

// DisplayName joins first and last name the way profiles are shown.
func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// NormalizedEmail is the lower-cased, trimmed primary email.
func (i Identity) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(i.Email))
}
