package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
)

// conversationService stores chat transcripts. Conversations and messages are
// hard-deleted.
type conversationService struct {
	db *gorm.DB
}

// NewConversationService creates a new ConversationServicer.
func NewConversationService(db *gorm.DB) ConversationServicer {
	return &conversationService{db: db}
}

// ListConversations returns the user's conversations, most recently updated
// first, each with a preview of its first message.
func (s *conversationService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	db := s.db.WithContext(ctx)

	conversations := []models.Conversation{}
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range conversations {
		var first models.Message
		err := db.Where("conversation_id = ?", conversations[i].ID).
			Order("timestamp ASC").
			Limit(1).
			Find(&first).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		conversations[i].Preview = first.Content
	}
	return conversations, nil
}

// GetConversation loads a conversation with its messages in order.
func (s *conversationService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	return &conv, nil
}

// CreateConversation stores a new conversation and its messages atomically.
func (s *conversationService) CreateConversation(ctx context.Context, userID, title string, messages []models.Message) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	msgs, err := prepareMessages(messages, time.Now())
	if err != nil {
		return nil, err
	}

	conv := &models.Conversation{
		UserID: userID,
		Title:  title,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return insertMessages(tx, conv.ID, msgs)
	})
	if err != nil {
		return nil, err
	}

	conv.Messages = msgs
	return conv, nil
}

// ReplaceMessages swaps the whole message set and bumps updated_at.
func (s *conversationService) ReplaceMessages(ctx context.Context, userID, conversationID string, messages []models.Message) (*models.Conversation, error) {
	now := time.Now()
	msgs, err := prepareMessages(messages, now)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Conversation{}).
			Where("id = ? AND user_id = ?", conversationID, userID).
			Update("updated_at", now)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrConversationNotFound
		}

		if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return insertMessages(tx, conversationID, msgs)
	})
	if err != nil {
		return nil, err
	}

	return s.GetConversation(ctx, userID, conversationID)
}

// DeleteConversation removes a conversation and its messages.
func (s *conversationService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Select("id").Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrConversationNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return deleteConversations(tx, []string{conv.ID})
	})
}

// ClearConversations removes every conversation the user owns.
func (s *conversationService) ClearConversations(ctx context.Context, userID string) (int64, error) {
	var cleared int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Conversation{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		cleared = int64(len(ids))
		if len(ids) == 0 {
			return nil
		}
		return deleteConversations(tx, ids)
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

func deleteConversations(tx *gorm.DB, ids []string) error {
	if err := tx.Where("conversation_id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Conversation{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// prepareMessages validates roles and assigns strictly increasing timestamps
// to messages that lack one, keeping insertion order stable.
func prepareMessages(messages []models.Message, now time.Time) ([]models.Message, error) {
	out := make([]models.Message, 0, len(messages))
	base := now.Add(-time.Duration(len(messages)) * time.Millisecond)
	for i, m := range messages {
		role, ok := models.NormalizeRole(string(m.Role))
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "message role must be user or assistant")
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "message content is required")
		}
		ts := m.Timestamp
		if ts.IsZero() {
			ts = base.Add(time.Duration(i) * time.Millisecond)
		}
		out = append(out, models.Message{
			Role:      role,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return out, nil
}

func insertMessages(tx *gorm.DB, conversationID string, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	for i := range msgs {
		msgs[i].ConversationID = conversationID
	}
	if err := tx.Create(&msgs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
