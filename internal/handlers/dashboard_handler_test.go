package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finguy/internal/models"
	"finguy/internal/services"
)

type mockDashboardService struct {
	getSummaryFn func(ctx context.Context, userID string) (*services.FinancialSummary, error)
}

func (m *mockDashboardService) GetSummary(ctx context.Context, userID string) (*services.FinancialSummary, error) {
	return m.getSummaryFn(ctx, userID)
}

func TestDashboardHandler_GetSummary(t *testing.T) {
	t.Run("returns summary", func(t *testing.T) {
		svc := &mockDashboardService{
			getSummaryFn: func(context.Context, string) (*services.FinancialSummary, error) {
				return &services.FinancialSummary{
					TotalBalance: decimal.RequireFromString("1234.56"),
					AccountCount: 2,
					MonthIncome:  decimal.NewFromInt(3000),
					MonthExpense: decimal.NewFromInt(1200),
				}, nil
			},
		}
		r := gin.New()
		r.GET("/dashboard", injectUserID(testUserID), NewDashboardHandler(svc).GetSummary)

		rec := doRequest(r, http.MethodGet, "/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		data := dataObject(t, rec)
		if data["total_balance"] != "1234.56" || data["account_count"] != float64(2) {
			t.Errorf("unexpected summary: %v", data)
		}
	})

	t.Run("masks storage failures", func(t *testing.T) {
		svc := &mockDashboardService{
			getSummaryFn: func(context.Context, string) (*services.FinancialSummary, error) {
				return nil, errors.New("connection refused")
			},
		}
		r := gin.New()
		r.GET("/dashboard", injectUserID(testUserID), NewDashboardHandler(svc).GetSummary)

		rec := doRequest(r, http.MethodGet, "/dashboard", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

// --- pipeline ---

type mockRecurringService struct {
	processDueFn func(ctx context.Context, now time.Time, limit int) (*services.RecurringRunSummary, error)
}

func (m *mockRecurringService) DueTransactionIDs(context.Context, time.Time, int) ([]string, error) {
	return nil, nil
}

func (m *mockRecurringService) ProcessRecurringTransaction(context.Context, string, time.Time) (*models.Transaction, error) {
	return nil, nil
}

func (m *mockRecurringService) ProcessDue(ctx context.Context, now time.Time, limit int) (*services.RecurringRunSummary, error) {
	return m.processDueFn(ctx, now, limit)
}

var _ services.RecurringServicer = (*mockRecurringService)(nil)

func TestPipelineHandler_ProcessRecurring(t *testing.T) {
	fixed := time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)
	var gotNow time.Time
	var gotLimit int
	svc := &mockRecurringService{
		processDueFn: func(_ context.Context, now time.Time, limit int) (*services.RecurringRunSummary, error) {
			gotNow = now
			gotLimit = limit
			return &services.RecurringRunSummary{Due: 3, Processed: 2, Skipped: 1}, nil
		},
	}
	h := NewPipelineHandler(svc, 50)
	h.now = func() time.Time { return fixed }
	r := gin.New()
	r.POST("/pipeline/recurring/process", h.ProcessRecurring)

	rec := doRequest(r, http.MethodPost, "/pipeline/recurring/process", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !gotNow.Equal(fixed) || gotLimit != 50 {
		t.Errorf("unexpected call: now=%v limit=%d", gotNow, gotLimit)
	}
	data := dataObject(t, rec)
	if data["processed"] != float64(2) || data["skipped"] != float64(1) {
		t.Errorf("unexpected summary: %v", data)
	}
}
