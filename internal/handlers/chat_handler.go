package handlers

import (
	"github.com/gin-gonic/gin"

	"finguy/internal/services"
)

// ChatHandler relays chat turns to the finance assistant.
type ChatHandler struct {
	chatService services.ChatServicer
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService services.ChatServicer) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest is one user turn. History is the client's transcript;
// when it is empty and a conversation ID is given, the stored transcript is used.
type SendMessageRequest struct {
	ConversationID string         `json:"conversation_id" binding:"omitempty,uuid"`
	Message        string         `json:"message" binding:"required,max=4000"`
	History        []MessageInput `json:"history" binding:"max=500,dive"`
}

// SendMessage asks the assistant and returns the updated transcript.
// Assistant failures are reported in-band with a placeholder reply.
// @Summary     Chat with the assistant
// @Tags        chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SendMessageRequest true "Chat turn"
// @Success     200 {object} SuccessResponse{data=services.ChatResult} "Transcript with reply"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Conversation not found"
// @Router      /chat [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	history, err := toMessages(req.History)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.chatService.Send(c.Request.Context(), userID, services.ChatRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		History:        history,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, result)
}
