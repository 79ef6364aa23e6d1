package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "finguy/internal/errors"
	"finguy/internal/models"
	"finguy/internal/services"
)

// ConversationHandler handles stored chat conversations.
type ConversationHandler struct {
	conversationService services.ConversationServicer
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(conversationService services.ConversationServicer) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// MessageInput is one transcript entry sent by the client. "bot" is accepted
// as an alias for "assistant".
type MessageInput struct {
	Role      string  `json:"role" binding:"required,message_role"`
	Content   string  `json:"content" binding:"required,max=20000"`
	Timestamp *string `json:"timestamp"`
}

// CreateConversationRequest stores a transcript under a new conversation.
type CreateConversationRequest struct {
	Title    string         `json:"title" binding:"max=200"`
	Messages []MessageInput `json:"messages" binding:"max=500,dive"`
}

// ReplaceMessagesRequest overwrites a conversation's transcript.
type ReplaceMessagesRequest struct {
	Messages []MessageInput `json:"messages" binding:"required,max=500,dive"`
}

func toMessages(inputs []MessageInput) ([]models.Message, error) {
	msgs := make([]models.Message, 0, len(inputs))
	for _, in := range inputs {
		role, ok := models.NormalizeRole(in.Role)
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown message role "+in.Role)
		}
		m := models.Message{Role: role, Content: in.Content}
		if in.Timestamp != nil && *in.Timestamp != "" {
			ts, err := parseFlexibleTime(*in.Timestamp)
			if err != nil {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
			}
			m.Timestamp = ts
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// ListConversations lists the caller's conversations, most recently updated first.
// @Summary     List conversations
// @Tags        conversations
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=[]models.Conversation} "Conversations"
// @Router      /conversations [get]
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	convs, err := h.conversationService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, convs)
}

// GetConversation returns a conversation with its messages in order.
// @Summary     Get a conversation
// @Tags        conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Conversation ID"
// @Success     200 {object} SuccessResponse{data=models.Conversation} "Conversation"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /conversations/{id} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	convID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	conv, err := h.conversationService.GetConversation(c.Request.Context(), userID, convID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, conv)
}

// CreateConversation stores a transcript. Without a title the first user
// message becomes the title.
// @Summary     Create a conversation
// @Tags        conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateConversationRequest true "Conversation"
// @Success     201 {object} SuccessResponse{data=models.Conversation} "Conversation created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /conversations [post]
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	msgs, err := toMessages(req.Messages)
	if err != nil {
		respondWithError(c, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = models.ConversationTitle(models.FilterTranscript(msgs))
	} else {
		title = models.TruncateTitle(title)
	}

	conv, err := h.conversationService.CreateConversation(c.Request.Context(), userID, title, msgs)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondCreated(c, conv)
}

// ReplaceMessages overwrites a conversation's transcript.
// @Summary     Replace conversation messages
// @Tags        conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Conversation ID"
// @Param       request body ReplaceMessagesRequest true "Messages"
// @Success     200 {object} SuccessResponse{data=models.Conversation} "Conversation updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /conversations/{id} [put]
func (h *ConversationHandler) ReplaceMessages(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	convID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReplaceMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	msgs, err := toMessages(req.Messages)
	if err != nil {
		respondWithError(c, err)
		return
	}

	conv, err := h.conversationService.ReplaceMessages(c.Request.Context(), userID, convID, msgs)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, conv)
}

// DeleteConversation removes a conversation and its messages.
// @Summary     Delete a conversation
// @Tags        conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Conversation ID"
// @Success     200 {object} SuccessResponse "Conversation deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /conversations/{id} [delete]
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	convID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.conversationService.DeleteConversation(c.Request.Context(), userID, convID); err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, gin.H{"id": convID})
}

// ClearConversations removes all of the caller's conversations.
// @Summary     Clear conversation history
// @Tags        conversations
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse "Number of deleted conversations"
// @Router      /conversations [delete]
func (h *ConversationHandler) ClearConversations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.conversationService.ClearConversations(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": deleted})
}
