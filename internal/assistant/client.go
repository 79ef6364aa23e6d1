// Package assistant provides an HTTP client for the remote question-answering
// service behind the finance chat.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUpstream is returned for every failure to obtain an answer: transport
// errors, timeouts, non-2xx statuses and undecodable bodies.
var ErrUpstream = errors.New("assistant upstream failure")

// maxResponseBytes bounds how much of a reply body is read.
const maxResponseBytes = 1 << 20

// HistoryMessage is one prior turn of the conversation.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the body posted to the question-answering endpoint.
type Request struct {
	Question            string           `json:"question"`
	IncludeScrapedData  bool             `json:"include_scraped_data"`
	ConversationHistory []HistoryMessage `json:"conversation_history,omitempty"`
	UserContext         interface{}      `json:"user_context,omitempty"`
}

// Response is the endpoint's reply. Older deployments answer in Message.
type Response struct {
	Answer  string `json:"answer"`
	Message string `json:"message"`
}

// Text returns the reply text, preferring Answer.
func (r *Response) Text() string {
	if s := strings.TrimSpace(r.Answer); s != "" {
		return s
	}
	return strings.TrimSpace(r.Message)
}

// Client talks to the question-answering endpoint.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client posting to endpoint. Each call is bounded by
// timeout in addition to the caller's context.
func NewClient(endpoint string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// Ask posts req and decodes the reply.
func (c *Client) Ask(ctx context.Context, req Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling assistant request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	return &result, nil
}
