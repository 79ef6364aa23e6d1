package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"finguy/internal/receipt"
	"finguy/internal/testutil"
)

type fakeExtractor struct {
	result *receipt.Result
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(context.Context, []byte, string) (*receipt.Result, error) {
	f.calls++
	return f.result, f.err
}

func TestScanReceipt(t *testing.T) {
	ctx := context.Background()
	image := []byte("jpeg-bytes")

	t.Run("returns_draft", func(t *testing.T) {
		ext := &fakeExtractor{result: &receipt.Result{
			Amount:       testutil.Money("18.40"),
			Date:         time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Description:  "Pharmacy run",
			MerchantName: "Green Cross",
			Category:     "healthcare",
		}}
		svc := NewReceiptService(ext)

		draft, err := svc.ScanReceipt(ctx, image, "image/jpeg")
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, draft.Amount, "18.40")
		if draft.Category != "healthcare" || draft.MerchantName != "Green Cross" {
			t.Errorf("unexpected draft: %+v", draft)
		}
	})

	t.Run("missing_date_defaults_to_now", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		ext := &fakeExtractor{result: &receipt.Result{Amount: testutil.Money("5"), Category: "gadgets"}}
		svc := &receiptService{extractor: ext, now: func() time.Time { return now }}

		draft, err := svc.ScanReceipt(ctx, image, "image/png")
		testutil.AssertNoError(t, err)
		if !draft.Date.Equal(now) {
			t.Errorf("expected %v, got %v", now, draft.Date)
		}
		if draft.Category != receipt.FallbackCategory {
			t.Errorf("expected fallback category, got %s", draft.Category)
		}
	})

	t.Run("not_a_receipt", func(t *testing.T) {
		svc := NewReceiptService(&fakeExtractor{err: receipt.ErrNotReceipt})
		_, err := svc.ScanReceipt(ctx, image, "image/jpeg")
		testutil.AssertAppError(t, err, "NOT_A_RECEIPT")
	})

	t.Run("scan_failure", func(t *testing.T) {
		svc := NewReceiptService(&fakeExtractor{err: fmt.Errorf("%w: timeout", receipt.ErrScanFailed)})
		_, err := svc.ScanReceipt(ctx, image, "image/jpeg")
		testutil.AssertAppError(t, err, "RECEIPT_SCAN_FAILED")
	})

	t.Run("rejects_invalid_uploads", func(t *testing.T) {
		ext := &fakeExtractor{err: errors.New("should not be called")}
		svc := NewReceiptService(ext)

		_, err := svc.ScanReceipt(ctx, nil, "image/jpeg")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.ScanReceipt(ctx, image, "application/pdf")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.ScanReceipt(ctx, bytes.Repeat([]byte{1}, MaxReceiptBytes+1), "image/jpeg")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		if ext.calls != 0 {
			t.Errorf("expected no extractor calls, got %d", ext.calls)
		}
	})

	t.Run("not_configured", func(t *testing.T) {
		svc := NewReceiptService(nil)
		_, err := svc.ScanReceipt(ctx, image, "image/jpeg")
		testutil.AssertAppError(t, err, "UPSTREAM_FAILURE")
	})
}
