package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, status int, text string, inspect func(r *http.Request, body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if inspect != nil {
			inspect(r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": text}},
					},
				},
			},
		})
	}))
}

func newTestScanner(t *testing.T, server *httptest.Server) *Scanner {
	t.Helper()
	s, err := NewScanner(context.Background(), "test-key", "", 2*time.Second,
		WithBaseURL(server.URL+"/"),
		WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestExtract_Success(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4e, 0x47}
	server := geminiServer(t, http.StatusOK,
		"```json\n{\"amount\": 42.5, \"date\": \"2024-03-05T10:00:00Z\", \"description\": \"Weekly shop\", \"merchantName\": \"Corner Market\", \"category\": \"groceries\"}\n```",
		func(r *http.Request, body map[string]any) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.True(t, strings.Contains(r.URL.Path, "models/"+DefaultModel), "unexpected path %s", r.URL.Path)
			assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), "unexpected path %s", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

			contents, ok := body["contents"].([]any)
			if !assert.True(t, ok) || !assert.Len(t, contents, 1) {
				return
			}
			parts := contents[0].(map[string]any)["parts"].([]any)
			if !assert.Len(t, parts, 2) {
				return
			}
			inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
			assert.Equal(t, "image/png", inline["mimeType"])
			assert.Equal(t, base64.StdEncoding.EncodeToString(image), inline["data"])
			assert.Contains(t, parts[1].(map[string]any)["text"], "If it's NOT a receipt, return {} only")
		})
	defer server.Close()

	res, err := newTestScanner(t, server).Extract(context.Background(), image, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "42.5", res.Amount.String())
	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), res.Date)
	assert.Equal(t, "Weekly shop", res.Description)
	assert.Equal(t, "Corner Market", res.MerchantName)
	assert.Equal(t, "groceries", res.Category)
}

func TestExtract_NotAReceipt(t *testing.T) {
	server := geminiServer(t, http.StatusOK, "{}", nil)
	defer server.Close()

	_, err := newTestScanner(t, server).Extract(context.Background(), []byte("cat"), "image/jpeg")
	assert.ErrorIs(t, err, ErrNotReceipt)
}

func TestExtract_UpstreamError(t *testing.T) {
	server := geminiServer(t, http.StatusInternalServerError, "", nil)
	defer server.Close()

	_, err := newTestScanner(t, server).Extract(context.Background(), []byte("img"), "image/jpeg")
	assert.ErrorIs(t, err, ErrScanFailed)
}

func TestExtract_EmptyImage(t *testing.T) {
	server := geminiServer(t, http.StatusOK, "{}", func(*http.Request, map[string]any) {
		t.Error("no request expected for an empty image")
	})
	defer server.Close()

	_, err := newTestScanner(t, server).Extract(context.Background(), nil, "image/jpeg")
	assert.ErrorIs(t, err, ErrScanFailed)
}

func TestNewScanner_RequiresKey(t *testing.T) {
	_, err := NewScanner(context.Background(), " ", "", time.Second)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	t.Run("plain_json_with_unknown_category", func(t *testing.T) {
		res, err := Parse(`{"amount": "12.345", "date": "2024-01-31", "description": "Taxi", "merchantName": "Cab Co", "category": "Rideshare"}`)
		require.NoError(t, err)
		assert.Equal(t, "12.35", res.Amount.StringFixed(2))
		assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), res.Date)
		assert.Equal(t, FallbackCategory, res.Category)
	})

	t.Run("category_is_case_insensitive", func(t *testing.T) {
		res, err := Parse(`{"amount": 3, "category": " Food "}`)
		require.NoError(t, err)
		assert.Equal(t, "food", res.Category)
		assert.True(t, res.Date.IsZero())
	})

	t.Run("empty_object", func(t *testing.T) {
		_, err := Parse("```\n{}\n```")
		assert.ErrorIs(t, err, ErrNotReceipt)
	})

	t.Run("not_json", func(t *testing.T) {
		_, err := Parse("I cannot read this image.")
		assert.ErrorIs(t, err, ErrScanFailed)
	})

	t.Run("missing_amount", func(t *testing.T) {
		_, err := Parse(`{"description": "Lunch"}`)
		assert.ErrorIs(t, err, ErrScanFailed)
	})

	t.Run("empty_response", func(t *testing.T) {
		_, err := Parse("  ")
		assert.ErrorIs(t, err, ErrScanFailed)
	})
}
