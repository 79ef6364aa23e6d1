package models

import "strings"

// Canned assistant texts shown by the chat client. None of them is ever
// persisted as part of a conversation.
const (
	WelcomeMessage = "👋 Hi, I'm FinGuy! I'm here to help with all your financial questions - budgeting, investments, saving strategies, expense tracking, and achieving your goals. What would you like to know?"

	PlaceholderServiceUnavailable = "⚠️ Service temporarily unavailable. Please try again."
	PlaceholderNoResponse         = "⚠️ I didn't receive a proper response. Please try again."
	PlaceholderConnectionError    = "⚠️ Connection error. Please check your internet and try again."
)

// ConversationTitleLimit is the maximum title length in characters,
// ellipsis included.
const ConversationTitleLimit = 30

const ellipsis = "..."

var transientMarkers = []string{
	"👋 Hi, I'm FinGuy!",
	"I didn't receive a proper response",
	"Connection error",
	"Service temporarily unavailable",
}

// IsTransient reports whether content is the welcome message or an injected
// error placeholder.
func IsTransient(content string) bool {
	for _, marker := range transientMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// FilterTranscript drops transient and blank messages, preserving order.
func FilterTranscript(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" || IsTransient(m.Content) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ConversationTitle derives a title from the first user message of an
// already filtered transcript, falling back to the first message of any role.
func ConversationTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role == RoleUser {
			return TruncateTitle(m.Content)
		}
	}
	if len(messages) > 0 {
		return TruncateTitle(messages[0].Content)
	}
	return "New conversation"
}

// TruncateTitle shortens s to ConversationTitleLimit characters, ending in
// "..." when anything was cut.
func TruncateTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= ConversationTitleLimit {
		return s
	}
	return string(runes[:ConversationTitleLimit-len(ellipsis)]) + ellipsis
}
