package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "finguy/internal/errors"
	"finguy/internal/logger"
	"finguy/internal/receipt"
)

// MaxReceiptBytes caps uploaded receipt images.
const MaxReceiptBytes = 5 << 20

type receiptService struct {
	extractor receipt.Extractor
	now       func() time.Time
}

// NewReceiptService creates a new ReceiptServicer. A nil extractor means
// scanning is not configured and every call fails with an upstream error.
func NewReceiptService(extractor receipt.Extractor) ReceiptServicer {
	return &receiptService{extractor: extractor, now: time.Now}
}

// ScanReceipt validates the upload and turns the model output into a
// transaction draft. The draft is never persisted here.
func (s *receiptService) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ScannedReceipt, error) {
	if len(image) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "receipt image is required")
	}
	if len(image) > MaxReceiptBytes {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "receipt image must be 5MB or smaller")
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "receipt must be an image")
	}
	if s.extractor == nil {
		return nil, apperrors.WithMessage(apperrors.ErrUpstream, "receipt scanning is not configured")
	}

	res, err := s.extractor.Extract(ctx, image, mimeType)
	if err != nil {
		if errors.Is(err, receipt.ErrNotReceipt) {
			return nil, apperrors.ErrNotAReceipt
		}
		logger.Get().Warnw("Receipt scan failed", "mime_type", mimeType, "size", len(image), "error", err)
		return nil, apperrors.Wrap(apperrors.ErrReceiptScanFailed, err)
	}

	date := res.Date
	if date.IsZero() {
		date = s.now().UTC()
	}
	return &ScannedReceipt{
		Amount:       res.Amount,
		Date:         date,
		Description:  res.Description,
		MerchantName: res.MerchantName,
		Category:     receipt.NormalizeCategory(res.Category),
	}, nil
}
