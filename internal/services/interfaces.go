package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finguy/internal/models"
	"finguy/internal/pagination"
)

// UserServicer defines the contract for resolving and loading local users.
type UserServicer interface {
	ProvisionUser(ctx context.Context, identity models.Identity) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// CreateAccountInput holds the fields of a new account.
type CreateAccountInput struct {
	Name           string
	Type           models.AccountType
	InitialBalance decimal.Decimal
	IsDefault      bool
}

// AccountUpdateFields holds optional fields for updating an account.
// Only non-nil fields are applied.
type AccountUpdateFields struct {
	Name *string
	Type *models.AccountType
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID string, input CreateAccountInput) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	SetDefaultAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

// TransactionInput holds the editable fields of a transaction. Updates replace
// every field, mirroring the full edit form.
type TransactionInput struct {
	AccountID         string
	Type              models.TransactionType
	Amount            decimal.Decimal
	Description       string
	Date              time.Time
	Category          string
	ReceiptURL        string
	IsRecurring       bool
	RecurringInterval *models.RecurringInterval
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	Type        *models.TransactionType
	Category    *string
	AccountID   *string
	IsRecurring *bool
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	BulkDeleteTransactions(ctx context.Context, userID string, transactionIDs []string) (int64, error)
}

// GoalUpdateFields holds optional fields for updating a goal.
type GoalUpdateFields struct {
	Title        *string
	TargetAmount *decimal.Decimal
	SavedAmount  *decimal.Decimal
}

// GoalServicer defines the contract for savings goals.
type GoalServicer interface {
	CreateGoal(ctx context.Context, userID, title string, targetAmount, savedAmount decimal.Decimal) (*models.Goal, error)
	GetUserGoals(ctx context.Context, userID string) ([]models.Goal, error)
	GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, fields GoalUpdateFields) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
	AddMoney(ctx context.Context, userID, goalID string, amount decimal.Decimal) (*models.Goal, error)
}

// ConversationServicer defines the contract for stored chat conversations.
type ConversationServicer interface {
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, userID, title string, messages []models.Message) (*models.Conversation, error)
	ReplaceMessages(ctx context.Context, userID, conversationID string, messages []models.Message) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ClearConversations(ctx context.Context, userID string) (int64, error)
}

// ChatRequest is one user turn sent to the assistant.
type ChatRequest struct {
	ConversationID string
	Message        string
	History        []models.Message
}

// ChatResult is the transcript after the assistant replied.
type ChatResult struct {
	ConversationID string           `json:"conversation_id,omitempty"`
	Reply          models.Message   `json:"reply"`
	Messages       []models.Message `json:"messages"`
	Persisted      bool             `json:"persisted"`
	Failed         bool             `json:"failed"`
}

// ChatServicer defines the contract for the assistant conversation flow.
type ChatServicer interface {
	Send(ctx context.Context, userID string, req ChatRequest) (*ChatResult, error)
}

// ScannedReceipt is the transaction draft extracted from a receipt image.
type ScannedReceipt struct {
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchant_name"`
	Category     string          `json:"category"`
}

// ReceiptServicer defines the contract for receipt scanning.
type ReceiptServicer interface {
	ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ScannedReceipt, error)
}

// RecurringRunSummary reports the outcome of one processing pass.
type RecurringRunSummary struct {
	Due       int `json:"due"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RecurringServicer materialises due recurring transactions.
type RecurringServicer interface {
	DueTransactionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	ProcessRecurringTransaction(ctx context.Context, transactionID string, now time.Time) (*models.Transaction, error)
	ProcessDue(ctx context.Context, now time.Time, limit int) (*RecurringRunSummary, error)
}

// FinancialSummary aggregates a user's accounts, transactions and goals.
// It doubles as the context bundle sent to the assistant.
type FinancialSummary struct {
	TotalBalance            decimal.Decimal `json:"total_balance"`
	AccountCount            int64           `json:"account_count"`
	RecentTransactionsCount int64           `json:"recent_transactions_count"`
	MonthIncome             decimal.Decimal `json:"month_income"`
	MonthExpense            decimal.Decimal `json:"month_expense"`
	TotalGoals              int64           `json:"total_goals"`
	CompletedGoals          int64           `json:"completed_goals"`
	TotalGoalTarget         decimal.Decimal `json:"total_goal_target"`
	TotalGoalSaved          decimal.Decimal `json:"total_goal_saved"`
}

// DashboardServicer defines the contract for the financial overview.
type DashboardServicer interface {
	GetSummary(ctx context.Context, userID string) (*FinancialSummary, error)
}

// AuditEntry describes one audited write.
type AuditEntry struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      map[string]interface{}
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Record(ctx context.Context, entry AuditEntry)
}
