package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finguy/internal/assistant"
	"finguy/internal/handlers"
	"finguy/internal/logger"
	"finguy/internal/middleware"
	"finguy/internal/models"
	"finguy/internal/receipt"
	"finguy/internal/services"
	"finguy/internal/testutil"
	"finguy/internal/validator"
)

const (
	testSessionSecret = "integration-session-secret"
	testSessionIssuer = "https://identity.test"
	testPipelineKey   = "integration-pipeline-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine

	// assistantStatus is the status the fake assistant answers with.
	assistantStatus atomic.Int32
	assistantCalls  atomic.Int32
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// stubExtractor returns a fixed receipt for every image.
type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, []byte, string) (*receipt.Result, error) {
	return receipt.Parse(`{"amount": 18.4, "date": "2024-04-02", "description": "Lunch", "merchantName": "Noodle Bar", "category": "food"}`)
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite and a fake assistant endpoint.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{DB: testutil.SetupTestDB(t)}
	app.assistantStatus.Store(http.StatusOK)

	assistantServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.assistantCalls.Add(1)
		var req assistant.Request
		_ = json.NewDecoder(r.Body).Decode(&req)

		status := int(app.assistantStatus.Load())
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"answer": fmt.Sprintf("You asked: %s (%d prior turns)", req.Question, len(req.ConversationHistory)),
		})
	}))
	t.Cleanup(assistantServer.Close)

	db := app.DB
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db)
	goalService := services.NewGoalService(db)
	conversationService := services.NewConversationService(db)
	dashboardService := services.NewDashboardService(db)
	chatService := services.NewChatService(conversationService, dashboardService,
		assistant.NewClient(assistantServer.URL, 5*time.Second, assistantServer.Client()))
	receiptService := services.NewReceiptService(stubExtractor{})
	recurringService := services.NewRecurringService(db)

	authHandler := handlers.NewAuthHandler(userService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, receiptService, auditService)
	goalHandler := handlers.NewGoalHandler(goalService, auditService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	chatHandler := handlers.NewChatHandler(chatService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	pipelineHandler := handlers.NewPipelineHandler(recurringService, 100)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(handlers.NotFound)

	v1 := router.Group("/api/v1")

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(testPipelineKey))
	pipeline.POST("/recurring/process", pipelineHandler.ProcessRecurring)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(testSessionSecret, testSessionIssuer))
	protected.Use(middleware.UserProvisioning(userService))

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/dashboard", dashboardHandler.GetSummary)
	protected.POST("/chat", chatHandler.SendMessage)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.PUT("/:id/default", accountHandler.SetDefaultAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("/bulk-delete", transactionHandler.BulkDeleteTransactions)
	transactions.POST("/scan-receipt", transactionHandler.ScanReceipt)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.GET("/:id", goalHandler.GetGoalByID)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/add-money", goalHandler.AddMoney)

	conversations := protected.Group("/conversations")
	conversations.GET("", conversationHandler.ListConversations)
	conversations.POST("", conversationHandler.CreateConversation)
	conversations.DELETE("", conversationHandler.ClearConversations)
	conversations.GET("/:id", conversationHandler.GetConversation)
	conversations.PUT("/:id", conversationHandler.ReplaceMessages)
	conversations.DELETE("/:id", conversationHandler.DeleteConversation)

	app.Router = router
	return app
}

// sessionToken issues a token the way the identity provider would.
func sessionToken(t *testing.T, externalID, email, first, last string) string {
	t.Helper()
	token, err := middleware.IssueSessionToken(testSessionSecret, testSessionIssuer, models.Identity{
		ExternalID: externalID,
		Email:      email,
		FirstName:  first,
		LastName:   last,
	}, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue session token: %v", err)
	}
	return token
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// pipelineRequest calls a pipeline endpoint with the given API key.
func (app *testApp) pipelineRequest(method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// data expects a success envelope and returns its data object.
func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	if result["success"] != true {
		t.Fatalf("expected success response, got %d: %s", rec.Code, rec.Body.String())
	}
	obj, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %v", result["data"])
	}
	return obj
}

// dataList expects a success envelope and returns its data array.
func dataList(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	list, ok := result["data"].([]interface{})
	if !ok {
		t.Fatalf("expected data array, got %v", result["data"])
	}
	return list
}

// errorCode returns the code of an error envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", result)
	}
	return errObj["code"].(string)
}

// createAccount creates an account over HTTP and returns its ID.
func (app *testApp) createAccount(t *testing.T, token, name, initialBalance string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"CURRENT","initial_balance":%q}`, name, initialBalance)
	rec := app.request(http.MethodPost, "/api/v1/accounts", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	return data(t, rec)["id"].(string)
}

// balance reads an account's balance over HTTP.
func (app *testApp) balance(t *testing.T, token, accountID string) string {
	t.Helper()
	rec := app.request(http.MethodGet, "/api/v1/accounts/"+accountID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account failed: %d %s", rec.Code, rec.Body.String())
	}
	return data(t, rec)["balance"].(string)
}
