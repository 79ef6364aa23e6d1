package services

import (
	"context"
	"strings"
	"time"

	"finguy/internal/assistant"
	apperrors "finguy/internal/errors"
	"finguy/internal/logger"
	"finguy/internal/models"
)

// AssistantAsker is the question-answering endpoint as seen by the chat flow.
type AssistantAsker interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Response, error)
}

// chatService runs one chat turn: build the transcript, ask the assistant and
// persist the exchange when it succeeded.
type chatService struct {
	conversations ConversationServicer
	summaries     DashboardServicer
	assistant     AssistantAsker
	now           func() time.Time
}

// NewChatService creates a new ChatServicer.
func NewChatService(conversations ConversationServicer, summaries DashboardServicer, asker AssistantAsker) ChatServicer {
	return &chatService{
		conversations: conversations,
		summaries:     summaries,
		assistant:     asker,
		now:           time.Now,
	}
}

// Send appends the user's message to the transcript and returns it with the
// assistant's reply. Upstream failures never surface as errors: the reply is
// a placeholder and nothing is persisted. Persistence failures are logged and
// reported through Persisted.
func (s *chatService) Send(ctx context.Context, userID string, req ChatRequest) (*ChatResult, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "message is required")
	}

	history, err := s.history(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stampMissing(history, now)
	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   question,
		Timestamp: now,
	}
	transcript := append(history, userMsg)

	eligible := models.FilterTranscript(history)
	priorTurns := toHistory(eligible)
	if !models.IsTransient(question) {
		eligible = append(eligible, userMsg)
	}

	result := &ChatResult{ConversationID: req.ConversationID}

	resp, err := s.assistant.Ask(ctx, assistant.Request{
		Question:            question,
		IncludeScrapedData:  true,
		ConversationHistory: priorTurns,
		UserContext:         s.userContext(ctx, userID),
	})

	var replyText string
	switch {
	case err != nil:
		logger.Get().Warnw("assistant request failed", "user_id", userID, "error", err)
		replyText = models.PlaceholderServiceUnavailable
		result.Failed = true
	case resp.Text() == "":
		logger.Get().Warnw("assistant returned an empty answer", "user_id", userID)
		replyText = models.PlaceholderNoResponse
		result.Failed = true
	default:
		replyText = resp.Text()
	}

	replyAt := s.now()
	if !replyAt.After(now) {
		replyAt = now.Add(time.Millisecond)
	}
	result.Reply = models.Message{
		Role:      models.RoleAssistant,
		Content:   replyText,
		Timestamp: replyAt,
	}
	result.Messages = append(transcript, result.Reply)

	if result.Failed {
		return result, nil
	}

	s.persist(ctx, userID, result, append(eligible, result.Reply))
	return result, nil
}

// history returns the prior transcript: the client's copy when supplied,
// otherwise the stored conversation.
func (s *chatService) history(ctx context.Context, userID string, req ChatRequest) ([]models.Message, error) {
	if len(req.History) == 0 && req.ConversationID != "" {
		conv, err := s.conversations.GetConversation(ctx, userID, req.ConversationID)
		if err != nil {
			return nil, err
		}
		return conv.Messages, nil
	}

	history := make([]models.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		role, ok := models.NormalizeRole(string(m.Role))
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "message role must be user or assistant")
		}
		m.Role = role
		history = append(history, m)
	}
	return history, nil
}

// userContext summarises the user's finances for the assistant. A failed
// summary only degrades the answer, so it is logged and omitted.
func (s *chatService) userContext(ctx context.Context, userID string) interface{} {
	if s.summaries == nil {
		return nil
	}
	summary, err := s.summaries.GetSummary(ctx, userID)
	if err != nil {
		logger.Get().Warnw("failed to build chat context", "user_id", userID, "error", err)
		return nil
	}
	return summary
}

func (s *chatService) persist(ctx context.Context, userID string, result *ChatResult, messages []models.Message) {
	ctx = context.WithoutCancel(ctx)
	var (
		conv *models.Conversation
		err  error
	)
	if result.ConversationID == "" {
		conv, err = s.conversations.CreateConversation(ctx, userID, models.ConversationTitle(messages), messages)
	} else {
		conv, err = s.conversations.ReplaceMessages(ctx, userID, result.ConversationID, messages)
	}
	if err != nil {
		logger.Get().Errorw("failed to persist conversation",
			"user_id", userID,
			"conversation_id", result.ConversationID,
			"error", err,
		)
		return
	}
	result.ConversationID = conv.ID
	result.Persisted = true
}

// stampMissing gives undated messages increasing timestamps just before now.
func stampMissing(messages []models.Message, now time.Time) {
	for i := range messages {
		if messages[i].Timestamp.IsZero() {
			messages[i].Timestamp = now.Add(-time.Duration(len(messages)-i) * time.Millisecond)
		}
	}
}

func toHistory(messages []models.Message) []assistant.HistoryMessage {
	out := make([]assistant.HistoryMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, assistant.HistoryMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
