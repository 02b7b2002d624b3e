// Package deezer is a small client for the public Deezer catalog API.
package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/errors"
)

const (
	// BaseURL is the Deezer API base URL.
	BaseURL = "https://api.deezer.com"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Deezer error codes, reported inside a 200 response body.
const (
	CodeQuota           = 4
	CodeItemsLimit      = 100
	CodePermission      = 200
	CodeTokenInvalid    = 300
	CodeParameter       = 500
	CodeMissingParam    = 501
	CodeQueryInvalid    = 600
	CodeServiceBusy     = 700
	CodeDataNotFound    = 800
	CodeIndividualLimit = 901
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger.With().Str("component", "deezer").Logger()
	}
}

// WithRetryWait sets the base backoff between retries.
func WithRetryWait(d time.Duration) Option {
	return func(cl *Client) {
		cl.retryWait = d
	}
}

// Client is a Deezer API client. The catalog endpoints need no
// authentication.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	retryWait  time.Duration
}

// New creates a new Deezer client. An empty baseURL selects BaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zerolog.Nop(),
		retryWait:  baseRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	fullURL := c.baseURL + path
	c.logger.Debug().Str("url", fullURL).Msg("GET")

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.logger.Debug().
				Int("attempt", attempt).
				Dur("wait", wait).
				AnErr("last_error", lastErr).
				Msg("retrying")
			select {
			case <-ctx.Done():
				return ctxError(ctx)
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctxError(ctx)
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				lastErr = fmt.Errorf("%w: %v", errors.ErrTimeout, err)
			} else {
				lastErr = fmt.Errorf("%w: %v", errors.ErrNetworkError, err)
			}
			c.logger.Debug().Err(err).Msg("network error")
			continue // Retry on network error
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("response")

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("API error: status %d", resp.StatusCode)
			continue
		}

		if apiErr := parseError(body); apiErr != nil {
			if apiErr.Retryable() {
				lastErr = apiErr
				c.logger.Debug().Err(apiErr).Msg("transient API error, will retry")
				continue
			}
			return apiErr
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
		}

		if result != nil && len(body) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// ctxError reports why ctx ended. An expired deadline is a timeout.
func ctxError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errors.ErrTimeout, err)
	}
	return err
}

// parseError extracts the error object Deezer embeds in response bodies.
func parseError(body []byte) *APIError {
	value, dataType, _, err := jsonparser.Get(body, "error")
	if err != nil || dataType != jsonparser.Object {
		return nil
	}

	apiErr := &APIError{}
	apiErr.Type, _ = jsonparser.GetString(value, "type")
	apiErr.Message, _ = jsonparser.GetString(value, "message")
	code, _ := jsonparser.GetInt(value, "code")
	apiErr.Code = int(code)
	return apiErr
}

// APIError represents a Deezer API error response.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Deezer API error %d (%s): %s", e.Code, e.Type, e.Message)
}

// Unwrap maps Deezer codes onto the application's sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeDataNotFound:
		return errors.ErrNotFound
	case CodeQuota, CodeIndividualLimit:
		return errors.ErrRateLimited
	}
	return nil
}

// Retryable returns true for quota and busy errors.
func (e *APIError) Retryable() bool {
	return e.Code == CodeQuota || e.Code == CodeServiceBusy
}

// IsNotFound checks if an error reports a missing entity.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeDataNotFound
	}
	return false
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
