package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// NormalizeRole maps client role names onto the stored roles.
// "bot" is the name the chat UI uses for assistant turns.
func NormalizeRole(role string) (MessageRole, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user":
		return RoleUser, true
	case "assistant", "bot":
		return RoleAssistant, true
	}
	return "", false
}

// Conversation is a titled, persisted chat session. Rows are hard-deleted
// together with their messages.
type Conversation struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`

	Preview string `gorm:"-" json:"preview,omitempty"`
}

// BeforeCreate assigns a UUIDv7 unless the caller chose an ID.
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Message is one turn of a conversation.
type Message struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           MessageRole `gorm:"not null" json:"role"`
	Content        string      `gorm:"not null" json:"content"`
	Timestamp      time.Time   `gorm:"not null" json:"timestamp"`
}

// BeforeCreate assigns a UUIDv7 unless the caller chose an ID.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
