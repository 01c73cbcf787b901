package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/auth"
)

const (
	// Retry configuration for transient errors
	defaultMaxRetries = 3
	baseRetryWait     = 500 * time.Millisecond
)

// Client is a media server API client.
type Client struct {
	httpClient *http.Client
	serverURL  string
	device     auth.Device
	creds      *auth.Credentials
	mu         sync.RWMutex
	maxRetries int
	retryWait  time.Duration
	cache      *queryCache
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries sets how many times network errors and 5xx responses are retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryWait sets the base backoff between retries.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCache enables the item query cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) { c.cache = newQueryCache(size, ttl) }
}

// New creates a client for the server at serverURL.
func New(serverURL string, device auth.Device, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		serverURL:  strings.TrimRight(serverURL, "/"),
		device:     device,
		maxRetries: defaultMaxRetries,
		retryWait:  baseRetryWait,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromCredentials creates a client for the server the credentials belong to.
func NewFromCredentials(creds *auth.Credentials, device auth.Device, opts ...Option) *Client {
	c := New(creds.ServerURL, device, opts...)
	c.creds = creds
	return c
}

// SetCredentials replaces the credentials used for requests.
func (c *Client) SetCredentials(creds *auth.Credentials) {
	c.mu.Lock()
	c.creds = creds
	if creds != nil && creds.ServerURL != "" {
		c.serverURL = strings.TrimRight(creds.ServerURL, "/")
	}
	c.mu.Unlock()
	c.Invalidate()
}

// Credentials returns the current credentials, or nil.
func (c *Client) Credentials() *auth.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// IsAuthenticated returns true if credentials with a token are present.
func (c *Client) IsAuthenticated() bool {
	return c.Credentials().Valid()
}

// ServerURL returns the server base URL without a trailing slash.
func (c *Client) ServerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverURL
}

// Device returns the device identity sent with every request.
func (c *Client) Device() auth.Device {
	return c.device
}

// Token returns the access token, or "" when signed out.
func (c *Client) Token() string {
	if creds := c.Credentials(); creds != nil {
		return creds.AccessToken
	}
	return ""
}

// UserID returns the signed-in user's id, or "".
func (c *Client) UserID() string {
	if creds := c.Credentials(); creds != nil {
		return creds.UserID
	}
	return ""
}

// AuthorizationHeader returns the header value authenticating the current user.
func (c *Client) AuthorizationHeader() string {
	return c.device.Header(c.Token())
}

// Invalidate drops every cached query result.
func (c *Client) Invalidate() {
	if c.cache != nil {
		c.cache.purge()
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	token := c.Token()
	if token == "" {
		return finchErrors.ErrNotAuthenticated
	}

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.ServerURL() + path
	c.logger.Debug().Str("method", method).Str("path", path).Int("body_bytes", len(jsonBody)).Msg("request")

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.logger.Debug().Int("attempt", attempt).Dur("wait", wait).Err(lastErr).Msg("retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", c.device.Header(token))
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue // Retry on network error
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("response")

		if resp.StatusCode == http.StatusNoContent {
			return nil
		}

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 {
			lastErr = newAPIError(resp.StatusCode, path, respBody)
			continue
		}

		// Don't retry 4xx errors
		if resp.StatusCode >= 400 {
			return newAPIError(resp.StatusCode, path, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func newAPIError(status int, path string, body []byte) *APIError {
	msg := strings.TrimSpace(string(body))
	var problem struct {
		Title   string `json:"title"`
		Message string `json:"Message"`
	}
	if json.Unmarshal(body, &problem) == nil {
		if problem.Message != "" {
			msg = problem.Message
		} else if problem.Title != "" {
			msg = problem.Title
		}
	}
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg, Path: path}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d on %s: %s", e.Status, e.Path, e.Message)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// IsNotFound checks if an error is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized checks if an error is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
