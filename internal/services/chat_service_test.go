package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finguy/internal/assistant"
	"finguy/internal/models"
	"finguy/internal/testutil"
)

type fakeAsker struct {
	answer   string
	err      error
	requests []assistant.Request
}

func (f *fakeAsker) Ask(_ context.Context, req assistant.Request) (*assistant.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Response{Answer: f.answer}, nil
}

// hangUpAsker answers and then cancels the caller's context, like a client
// that disconnects once the reply is on its way.
type hangUpAsker struct {
	answer string
	cancel context.CancelFunc
}

func (h *hangUpAsker) Ask(context.Context, assistant.Request) (*assistant.Response, error) {
	h.cancel()
	return &assistant.Response{Answer: h.answer}, nil
}

// failingConversations wraps a real store and fails every write.
type failingConversations struct {
	ConversationServicer
}

func (failingConversations) CreateConversation(context.Context, string, string, []models.Message) (*models.Conversation, error) {
	return nil, errors.New("disk full")
}

func countConversations(t *testing.T, svc ConversationServicer, userID string) int {
	t.Helper()
	convs, err := svc.ListConversations(context.Background(), userID)
	testutil.AssertNoError(t, err)
	return len(convs)
}

func TestChatSend(t *testing.T) {
	ctx := context.Background()

	t.Run("first_exchange_creates_conversation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		conversations := NewConversationService(db)
		asker := &fakeAsker{answer: "Sure, let's plan it."}
		svc := NewChatService(conversations, NewDashboardService(db), asker)

		result, err := svc.Send(ctx, user.ID, ChatRequest{
			Message: "Hello there, can you help me budget for a trip?",
			History: []models.Message{{Role: models.RoleAssistant, Content: models.WelcomeMessage}},
		})
		testutil.AssertNoError(t, err)

		if !result.Persisted || result.ConversationID == "" {
			t.Fatalf("expected persisted conversation, got %+v", result)
		}
		if result.Reply.Content != "Sure, let's plan it." {
			t.Errorf("unexpected reply %q", result.Reply.Content)
		}

		conv, err := conversations.GetConversation(ctx, user.ID, result.ConversationID)
		testutil.AssertNoError(t, err)
		if conv.Title != "Hello there, can you help m..." {
			t.Errorf("unexpected title %q", conv.Title)
		}
		if len(conv.Messages) != 2 {
			t.Fatalf("expected welcome message to be filtered, got %d messages", len(conv.Messages))
		}
		if conv.Messages[0].Role != models.RoleUser || conv.Messages[1].Role != models.RoleAssistant {
			t.Errorf("unexpected message order %+v", conv.Messages)
		}

		req := asker.requests[0]
		if !req.IncludeScrapedData {
			t.Error("expected include_scraped_data to be set")
		}
		if len(req.ConversationHistory) != 0 {
			t.Errorf("expected welcome message excluded from history, got %+v", req.ConversationHistory)
		}
		if _, ok := req.UserContext.(*FinancialSummary); !ok {
			t.Errorf("expected financial summary context, got %T", req.UserContext)
		}
	})

	t.Run("follow_up_replaces_messages", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		conversations := NewConversationService(db)
		asker := &fakeAsker{answer: "First answer"}
		svc := NewChatService(conversations, nil, asker)

		first, err := svc.Send(ctx, user.ID, ChatRequest{Message: "First question"})
		testutil.AssertNoError(t, err)

		asker.answer = "Second answer"
		second, err := svc.Send(ctx, user.ID, ChatRequest{
			ConversationID: first.ConversationID,
			Message:        "Second question",
		})
		testutil.AssertNoError(t, err)

		if second.ConversationID != first.ConversationID {
			t.Errorf("expected same conversation, got %s", second.ConversationID)
		}
		conv, err := conversations.GetConversation(ctx, user.ID, first.ConversationID)
		testutil.AssertNoError(t, err)
		if len(conv.Messages) != 4 {
			t.Fatalf("expected 4 messages, got %d", len(conv.Messages))
		}
		if conv.Messages[3].Content != "Second answer" {
			t.Errorf("expected last message to be latest reply, got %q", conv.Messages[3].Content)
		}
		if len(asker.requests[1].ConversationHistory) != 2 {
			t.Errorf("expected 2 prior turns sent, got %d", len(asker.requests[1].ConversationHistory))
		}
		if countConversations(t, conversations, user.ID) != 1 {
			t.Error("expected a single conversation")
		}
	})

	t.Run("upstream_500_yields_placeholder_without_write", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		conversations := NewConversationService(db)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		client := assistant.NewClient(server.URL, time.Second, server.Client())
		svc := NewChatService(conversations, NewDashboardService(db), client)

		history := []models.Message{{Role: models.RoleAssistant, Content: models.WelcomeMessage}}
		result, err := svc.Send(ctx, user.ID, ChatRequest{Message: "Any tips?", History: history})
		testutil.AssertNoError(t, err)

		if !result.Failed || result.Persisted {
			t.Errorf("expected failed, unpersisted result, got %+v", result)
		}
		if len(result.Messages) != 3 {
			t.Fatalf("expected welcome, question and one placeholder, got %d messages", len(result.Messages))
		}
		placeholders := 0
		for _, m := range result.Messages {
			if m.Content == models.PlaceholderServiceUnavailable {
				placeholders++
			}
		}
		if placeholders != 1 {
			t.Errorf("expected exactly one placeholder, got %d", placeholders)
		}
		if countConversations(t, conversations, user.ID) != 0 {
			t.Error("expected no conversation to be written")
		}
	})

	t.Run("empty_answer_uses_no_response_placeholder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		conversations := NewConversationService(db)
		svc := NewChatService(conversations, nil, &fakeAsker{answer: ""})

		result, err := svc.Send(ctx, user.ID, ChatRequest{Message: "Hello?"})
		testutil.AssertNoError(t, err)

		if result.Reply.Content != models.PlaceholderNoResponse {
			t.Errorf("unexpected reply %q", result.Reply.Content)
		}
		if countConversations(t, conversations, user.ID) != 0 {
			t.Error("expected no conversation to be written")
		}
	})

	t.Run("placeholders_never_reach_storage", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		conversations := NewConversationService(db)
		svc := NewChatService(conversations, nil, &fakeAsker{answer: "Recovered"})

		result, err := svc.Send(ctx, user.ID, ChatRequest{
			Message: "Retrying",
			History: []models.Message{
				{Role: models.RoleAssistant, Content: models.WelcomeMessage},
				{Role: models.RoleUser, Content: "Any tips?"},
				{Role: models.RoleAssistant, Content: models.PlaceholderServiceUnavailable},
			},
		})
		testutil.AssertNoError(t, err)

		conv, err := conversations.GetConversation(ctx, user.ID, result.ConversationID)
		testutil.AssertNoError(t, err)
		for _, m := range conv.Messages {
			if models.IsTransient(m.Content) {
				t.Errorf("transient message persisted: %q", m.Content)
			}
		}
		if len(conv.Messages) != 3 {
			t.Errorf("expected 3 persisted messages, got %d", len(conv.Messages))
		}
		if conv.Title != "Any tips?" {
			t.Errorf("expected title from first real message, got %q", conv.Title)
		}
	})

	t.Run("persistence_failure_is_swallowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := NewChatService(failingConversations{NewConversationService(db)}, nil, &fakeAsker{answer: "Hi"})

		result, err := svc.Send(ctx, user.ID, ChatRequest{Message: "Hello"})
		testutil.AssertNoError(t, err)
		if result.Persisted {
			t.Error("expected persisted=false")
		}
		if result.Reply.Content != "Hi" {
			t.Errorf("expected reply to be returned, got %q", result.Reply.Content)
		}
	})

	t.Run("save_survives_client_disconnect", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		conversations := NewConversationService(db)
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		svc := NewChatService(conversations, nil, &hangUpAsker{answer: "Noted.", cancel: cancel})

		result, err := svc.Send(reqCtx, user.ID, ChatRequest{Message: "Log my coffee habit"})
		testutil.AssertNoError(t, err)
		if !result.Persisted {
			t.Fatal("expected the exchange to be saved after the client went away")
		}
		if n := countConversations(t, conversations, user.ID); n != 1 {
			t.Errorf("expected 1 conversation, got %d", n)
		}
	})

	t.Run("unknown_conversation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		svc := NewChatService(NewConversationService(db), nil, &fakeAsker{answer: "Hi"})

		_, err := svc.Send(ctx, user.ID, ChatRequest{ConversationID: "01900000-0000-7000-8000-000000000000", Message: "Hello"})
		testutil.AssertAppError(t, err, "CONVERSATION_NOT_FOUND")
	})

	t.Run("empty_message", func(t *testing.T) {
		svc := NewChatService(nil, nil, &fakeAsker{})
		_, err := svc.Send(ctx, "user", ChatRequest{Message: "  "})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
