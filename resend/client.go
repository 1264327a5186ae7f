package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Endpoint is the Resend send-email URL.
const Endpoint = "https://api.resend.com/emails"

// defaultTimeout applies when Config.Timeout is zero.
const defaultTimeout = 30 * time.Second

// Config holds the configuration for creating a Client.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// Client sends emails through the Resend API. It holds no mutable state and
// may be shared between goroutines.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// SendResult is the decoded body of a successful send.
type SendResult struct {
	ID string `json:"id"`
}

// SendOption adjusts a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey sets the Idempotency-Key header so that Resend drops
// repeated sends carrying the same key.
func WithIdempotencyKey(key string) SendOption {
	return func(o *sendOptions) {
		o.idempotencyKey = key
	}
}

// New creates a Client with its own HTTP client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(cfg, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a Client that issues requests through hc.
// cfg.Timeout is ignored; hc's own timeout applies.
func NewWithHTTPClient(cfg Config, hc *http.Client) *Client {
	return newWithOverrides(cfg, Endpoint, hc)
}

// newWithOverrides creates a Client with a custom endpoint, used for testing.
func newWithOverrides(cfg Config, endpoint string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: hc,
	}
}

// Send posts m to the API. It returns a *RemoteError for non-2xx responses,
// a *TransportError when no response was obtained and a *ParseError when a
// 2xx body carries no id. Nothing is retried.
func (c *Client) Send(ctx context.Context, m Mail, opts ...SendOption) (*SendResult, error) {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}

	bodyJSON, err := Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if o.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", o.idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return parseResult(body)
}

// parseResult decodes a successful response, keeping only the id. The key
// must be exactly "id" and its value a string.
func parseResult(body []byte) (*SendResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &ParseError{Body: string(body), Err: err}
	}

	raw, ok := fields["id"]
	if !ok {
		return nil, &ParseError{Body: string(body), Err: ErrMissingID}
	}

	var id *string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, &ParseError{Body: string(body), Err: fmt.Errorf("invalid id: %w", err)}
	}
	if id == nil {
		return nil, &ParseError{Body: string(body), Err: ErrMissingID}
	}
	return &SendResult{ID: *id}, nil
}
