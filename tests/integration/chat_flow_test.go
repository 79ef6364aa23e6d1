package integration

import (
	"fmt"
	"net/http"
	"testing"

	"finguy/internal/models"
)

func TestChatFlow_ConversationIsPersistedAndContinued(t *testing.T) {
	app := setupApp(t)
	token := sessionToken(t, "user_chat", "chat@test.com", "Chad", "C")

	// Step 1: A chat without a conversation starts one
	rec := app.request(http.MethodPost, "/api/v1/chat",
		`{"message":"How much did I spend on groceries last month?"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := data(t, rec)
	if result["failed"] != false || result["persisted"] != true {
		t.Fatalf("expected a persisted reply, got %v", result)
	}
	reply := result["reply"].(map[string]interface{})
	if reply["content"] != "You asked: How much did I spend on groceries last month? (0 prior turns)" {
		t.Errorf("unexpected reply: %v", reply["content"])
	}
	convID := result["conversation_id"].(string)

	// Step 2: The conversation is listed with a derived title
	rec = app.request(http.MethodGet, "/api/v1/conversations", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	convs := dataList(t, rec)
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	conv := convs[0].(map[string]interface{})
	if conv["title"] != "How much did I spend on gro..." {
		t.Errorf("unexpected title %q", conv["title"])
	}
	if conv["preview"] != "How much did I spend on groceries last month?" {
		t.Errorf("unexpected preview %q", conv["preview"])
	}

	// Step 3: A follow-up without history uses the stored transcript
	rec = app.request(http.MethodPost, "/api/v1/chat",
		fmt.Sprintf(`{"conversation_id":%q,"message":"And the month before?"}`, convID), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = data(t, rec)
	reply = result["reply"].(map[string]interface{})
	if reply["content"] != "You asked: And the month before? (2 prior turns)" {
		t.Errorf("unexpected follow-up reply: %v", reply["content"])
	}
	if result["conversation_id"] != convID {
		t.Errorf("expected the same conversation, got %v", result["conversation_id"])
	}

	rec = app.request(http.MethodGet, "/api/v1/conversations/"+convID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	messages := data(t, rec)["messages"].([]interface{})
	if len(messages) != 4 {
		t.Fatalf("expected 4 stored messages, got %d", len(messages))
	}
	roles := make([]string, len(messages))
	for i, m := range messages {
		roles[i] = m.(map[string]interface{})["role"].(string)
	}
	if fmt.Sprint(roles) != "[user assistant user assistant]" {
		t.Errorf("unexpected role order %v", roles)
	}
}

func TestChatFlow_AssistantFailureIsNotPersisted(t *testing.T) {
	app := setupApp(t)
	token := sessionToken(t, "user_chat_fail", "fail@test.com", "Fay", "F")
	app.assistantStatus.Store(http.StatusInternalServerError)

	rec := app.request(http.MethodPost, "/api/v1/chat", `{"message":"Am I on budget?"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with an in-band failure, got %d: %s", rec.Code, rec.Body.String())
	}
	result := data(t, rec)
	if result["failed"] != true || result["persisted"] != false {
		t.Fatalf("expected failed and unpersisted result, got %v", result)
	}
	reply := result["reply"].(map[string]interface{})
	if reply["content"] != models.PlaceholderServiceUnavailable {
		t.Errorf("expected placeholder reply, got %v", reply["content"])
	}
	if app.assistantCalls.Load() == 0 {
		t.Error("expected the assistant to be called")
	}

	var count int64
	app.DB.Model(&models.Conversation{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no conversation stored, got %d", count)
	}
}

func TestChatFlow_UnknownConversation(t *testing.T) {
	app := setupApp(t)
	owner := sessionToken(t, "user_chat_owner", "chatowner@test.com", "Cora", "O")
	other := sessionToken(t, "user_chat_other", "chatother@test.com", "Carl", "O")

	rec := app.request(http.MethodPost, "/api/v1/chat", `{"message":"Hello there"}`, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	convID := data(t, rec)["conversation_id"].(string)

	rec = app.request(http.MethodPost, "/api/v1/chat",
		fmt.Sprintf(`{"conversation_id":%q,"message":"Let me in"}`, convID), other)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "CONVERSATION_NOT_FOUND" {
		t.Errorf("expected CONVERSATION_NOT_FOUND, got %s", code)
	}
}

func TestConversationFlow_CRUD(t *testing.T) {
	app := setupApp(t)
	token := sessionToken(t, "user_conv", "conv@test.com", "Connie", "V")

	// Step 1: Store a client transcript; "bot" is the assistant
	rec := app.request(http.MethodPost, "/api/v1/conversations", `{"messages":[
		{"role":"user","content":"What is my balance?","timestamp":"2024-05-01T10:00:00Z"},
		{"role":"bot","content":"It is 100.","timestamp":"2024-05-01T10:00:01Z"}
	]}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	conv := data(t, rec)
	convID := conv["id"].(string)
	if conv["title"] != "What is my balance?" {
		t.Errorf("unexpected title %q", conv["title"])
	}

	// Step 2: Replace the transcript
	rec = app.request(http.MethodPut, "/api/v1/conversations/"+convID, `{"messages":[
		{"role":"user","content":"Start over"}
	]}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	messages := data(t, rec)["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("expected 1 message after replace, got %d", len(messages))
	}

	// Step 3: Delete one, then clear the rest
	rec = app.request(http.MethodPost, "/api/v1/conversations", `{"title":"Second","messages":[{"role":"user","content":"hi"}]}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request(http.MethodPost, "/api/v1/conversations", `{"title":"Third","messages":[{"role":"user","content":"hey"}]}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request(http.MethodDelete, "/api/v1/conversations/"+convID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request(http.MethodGet, "/api/v1/conversations/"+convID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}

	rec = app.request(http.MethodDelete, "/api/v1/conversations", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if deleted := data(t, rec)["deleted"]; deleted != float64(2) {
		t.Errorf("expected 2 cleared, got %v", deleted)
	}

	var count int64
	app.DB.Model(&models.Message{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no orphaned messages, got %d", count)
	}
}
