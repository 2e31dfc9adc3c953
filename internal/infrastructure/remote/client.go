package remote

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

	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/infrastructure/logger"
)

// maxResponseSize caps how much of a response body is read (1MB)
const maxResponseSize = 1 << 20

// DefaultTimeout bounds a single HTTP exchange when no option overrides it
const DefaultTimeout = 10 * time.Second

// ErrNoCredential is returned when a call that needs a bearer token has none
var ErrNoCredential = errors.New("remote: no session credential")

// APIError is a non-2xx response from the storefront API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote: http %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: http %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// envelope mirrors the server's {success, data, error} response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error,omitempty"`
}

// Client is the shared HTTP plumbing of the storefront API clients
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer credential
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the client logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API rooted at baseURL (e.g. http://host/api/v1)
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasToken reports whether a bearer credential is configured
func (c *Client) HasToken() bool {
	return c.token != ""
}

// do sends body as JSON and decodes the envelope's data into out (when non-nil).
// It returns the HTTP status; non-2xx responses are *APIError.
func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out any) (int, error) {
	if auth && c.token == "" {
		return 0, ErrNoCredential
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("remote: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if rid := logger.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("remote: read response: %w", err)
	}
	c.logger.Debug("remote request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.RequestID = env.Error.RequestID
		}
		return resp.StatusCode, apiErr
	}

	if out == nil || len(data) == 0 {
		return resp.StatusCode, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("remote: decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return resp.StatusCode, fmt.Errorf("remote: response has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("remote: decode data: %w", err)
	}
	return resp.StatusCode, nil
}
