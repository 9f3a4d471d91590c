package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.telegram.org"

// APIError is returned when the Bot API answers with "ok": false.
type APIError struct {
	Method      string
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s: %d %s", e.Method, e.Code, e.Description)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// User is the getMe result.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type WebhookInfo struct {
	URL         string `json:"url"`
	SecretToken string `json:"secret_token,omitempty"`
}

type ReplyParameters struct {
	MessageID int64 `json:"message_id"`
}

type SendMessageRequest struct {
	ChatID          int64            `json:"chat_id"`
	Text            string           `json:"text"`
	MessageThreadID int64            `json:"message_thread_id,omitempty"`
	ReplyParameters *ReplyParameters `json:"reply_parameters,omitempty"`
}

// Client talks to the Telegram Bot API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

func NewClient(token, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	u := &User{}
	if _, err := c.call(ctx, "getMe", struct{}{}, u); err != nil {
		return nil, err
	}

	return u, nil
}

// SetWebhook registers the webhook and returns the raw API response body.
func (c *Client) SetWebhook(ctx context.Context, info WebhookInfo) (json.RawMessage, error) {
	return c.call(ctx, "setWebhook", info, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", struct{}{}, nil)

	return err
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	_, err := c.call(ctx, "sendMessage", req, nil)

	return err
}

// call posts params to method and decodes the result into out when out is
// not nil. The raw body is returned even for "ok": false replies.
func (c *Client) call(ctx context.Context, method string, params, out interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: encode: %w", method, err)
	}

	url := c.baseURL + "/bot" + c.token + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, c.redact(err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: read: %w", method, err)
	}

	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return body, fmt.Errorf("telegram: %s: status %d: decode: %w", method, resp.StatusCode, err)
	}

	if !r.OK {
		return body, &APIError{Method: method, Code: r.ErrorCode, Description: r.Description}
	}

	if out != nil {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return body, fmt.Errorf("telegram: %s: decode result: %w", method, err)
		}
	}

	return body, nil
}

// redact strips the bot token out of transport errors, which quote the URL.
func (c *Client) redact(err error) error {
	if c.token == "" || !strings.Contains(err.Error(), c.token) {
		return err
	}

	return redactedError{msg: strings.ReplaceAll(err.Error(), c.token, "<token>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }

func (e redactedError) Unwrap() error { return e.err }
