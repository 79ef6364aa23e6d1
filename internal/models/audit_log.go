package models

// AuditLog records sensitive user operations.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"not null;default:''" json:"resource_id"`
	IPAddress    string `gorm:"not null;default:''" json:"ip_address"`
	Changes      string `gorm:"not null;default:''" json:"changes,omitempty"`
}
