package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

var (
	// ErrNotReceipt is returned when the model reports the image is not a receipt.
	ErrNotReceipt = errors.New("image is not a receipt")
	// ErrScanFailed covers transport failures and unusable model output.
	ErrScanFailed = errors.New("receipt scan failed")
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Categories the model may pick from. Anything else collapses to FallbackCategory.
var Categories = []string{
	"groceries", "food", "transportation", "utilities", "healthcare",
	"shopping", "entertainment", "housing", "education", "personal",
	"travel", "insurance", "gifts", "bills", "other-expense",
}

const FallbackCategory = "other-expense"

const extractionPrompt = `Analyze this receipt image and extract the following information. Based on the items purchased, select the most appropriate category from this list:

AVAILABLE CATEGORIES:
- "groceries" (for food items, produce, household supplies from grocery stores)
- "food" (for restaurants, takeout, dining out)
- "transportation" (for fuel, parking, car maintenance, public transport)
- "utilities" (for electricity, water, gas, internet, phone bills)
- "healthcare" (for medical, dental, pharmacy, insurance)
- "shopping" (for clothing, electronics, home goods, general retail)
- "entertainment" (for movies, games, streaming services)
- "housing" (for rent, mortgage, property tax, maintenance)
- "education" (for tuition, books, courses)
- "personal" (for haircut, gym, beauty, personal care)
- "travel" (for flights, hotels, vacation expenses)
- "insurance" (for life, home, vehicle insurance)
- "gifts" (for gifts and donations)
- "bills" (for bank fees, service charges)
- "other-expense" (for anything that doesn't fit other categories)

Extract and return ONLY this JSON format:
{
  "amount": number,
  "date": "ISO string",
  "description": "string",
  "merchantName": "string",
  "category": "exact_category_id_from_list_above"
}

IMPORTANT RULES:
- Look at the merchant name and items to determine category
- Grocery stores = "groceries"
- Restaurants/fast food = "food"
- Gas stations = "transportation"
- Pharmacies = "healthcare"
- Clothing stores = "shopping"
- Use "other-expense" only if truly uncertain
- If it's NOT a receipt, return {} only
- Return ONLY valid JSON, no other text`

// Result is the structured data extracted from a receipt image.
type Result struct {
	Amount       decimal.Decimal
	Date         time.Time // zero when the model returned no parseable date
	Description  string
	MerchantName string
	Category     string
}

// Extractor is the part of Scanner the services depend on.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Result, error)
}

// Scanner extracts receipt fields through the Gemini generateContent endpoint.
type Scanner struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Extractor = (*Scanner)(nil)

// Option adjusts the Gemini client configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) { cfg.HTTPOptions.BaseURL = url }
}

// WithHTTPClient sets the transport used for generateContent calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *genai.ClientConfig) { cfg.HTTPClient = c }
}

// NewScanner builds the Gemini client once.
func NewScanner(ctx context.Context, apiKey, model string, timeout time.Duration, opts ...Option) (*Scanner, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing gemini api key")
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Scanner{client: client, model: model, timeout: timeout}, nil
}

// Extract sends the image inline with the extraction prompt and parses the reply.
func (s *Scanner) Extract(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrScanFailed)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: generate content: %v", ErrScanFailed, err)
	}
	return Parse(responseText(resp))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

type payload struct {
	Amount       *decimal.Decimal `json:"amount"`
	Date         string           `json:"date"`
	Description  string           `json:"description"`
	MerchantName string           `json:"merchantName"`
	Category     string           `json:"category"`
}

// Parse turns the raw model output into a Result. Markdown code fences around
// the JSON are tolerated.
func Parse(text string) (*Result, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrScanFailed)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: decode model response: %v", ErrScanFailed, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotReceipt
	}

	var p payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, fmt.Errorf("%w: decode receipt fields: %v", ErrScanFailed, err)
	}
	if p.Amount == nil || !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: missing or non-positive amount", ErrScanFailed)
	}

	return &Result{
		Amount:       p.Amount.Round(2),
		Date:         parseDate(p.Date),
		Description:  strings.TrimSpace(p.Description),
		MerchantName: strings.TrimSpace(p.MerchantName),
		Category:     NormalizeCategory(p.Category),
	}, nil
}

// NormalizeCategory maps the model's category onto the known list.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, known := range Categories {
		if c == known {
			return known
		}
	}
	return FallbackCategory
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
