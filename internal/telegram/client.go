// Package telegram implements a minimal Telegram Bot API client covering the
// methods the polling pipeline needs. Provider-level failures are suppressed
// into the decoded response body (ok=false) instead of surfacing as transport
// errors, so callers can treat any failed call as "no progress, retry later".
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gastolog/gastobot/pkg/metrics"
)

const defaultBaseURL = "https://api.telegram.org"

// API is the outbound surface consumed by the fetcher and the dispatcher.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
	SendMessage(ctx context.Context, req SendMessageRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	GetMe(ctx context.Context) (*User, error)
}

// APIError is a provider-level failure (ok=false in the response body).
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Client talks to the Telegram Bot API over HTTP.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

var _ API = (*Client)(nil)

// NewClient builds a Client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// apiResponse is the common Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// GetUpdates fetches updates strictly after the previously confirmed batch.
// offset carries Bot API semantics: 0 means "from the earliest available".
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	body := map[string]interface{}{"timeout": timeout}
	if offset > 0 {
		body["offset"] = offset
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", body, &updates); err != nil {
		return nil, err
	}

	return updates, nil
}

// SendMessage posts a message to a chat.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	if req.ParseMode == "" {
		req.ParseMode = "HTML"
	}

	return c.call(ctx, "sendMessage", req, nil)
}

// AnswerCallbackQuery acknowledges a button press so the client stops showing
// the loading indicator.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	body := map[string]interface{}{
		"callback_query_id": callbackID,
		"text":              text,
		"show_alert":        showAlert,
	}

	return c.call(ctx, "answerCallbackQuery", body, nil)
}

// GetMe returns the bot account; the health checker uses it as a liveness probe.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}

	return &me, nil
}

// call executes one POST to /bot<token>/<method>. The body is decoded even on
// non-2xx statuses: the Bot API reports errors as JSON with ok=false.
func (c *Client) call(ctx context.Context, method string, body interface{}, out interface{}) error {
	start := time.Now()
	err := c.doCall(ctx, method, body, out)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveTelegramCall(method, status, time.Since(start))

	return err
}

func (c *Client) doCall(ctx context.Context, method string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response (http %d): %w", method, resp.StatusCode, err)
	}

	if !envelope.OK {
		return &APIError{
			Method:      method,
			Code:        envelope.ErrorCode,
			Description: envelope.Description,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}
