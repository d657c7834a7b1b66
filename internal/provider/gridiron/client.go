// Package gridiron provides the HTTP client for the Gridiron Stats API, the
// upstream NFL data provider.
//
// The API uses offset/limit ("start"/"count") pagination and bearer token
// auth. Outbound requests are throttled with a token bucket limiter; 429 and
// 5xx responses are retried with exponential backoff, other 4xx responses
// fail immediately.
package gridiron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultPageSize is the record count requested per page.
const DefaultPageSize = 100

// maxPages is a defensive cap on pagination loops; a well-behaved upstream
// terminates on a short page long before this.
const maxPages = 500

// APIError is a non-2xx response from the upstream provider.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gridiron %s returned %d: %s", e.Path, e.Status, e.Body)
}

// Retryable reports whether the status is worth retrying: 429 and 5xx are
// transient, every other 4xx is a permanent rejection.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsPermanent reports whether err is a non-retryable upstream rejection.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && !apiErr.Retryable()
}

// Client is the shared HTTP client for all Gridiron endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	pageSize   int
	logger     *slog.Logger
}

// NewClient creates a Gridiron client with rate limiting and retry policy.
func NewClient(baseURL, token string, requestsPerMinute, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		pageSize:   DefaultPageSize,
		logger:     logger,
	}
}

// page is the common Gridiron response wrapper. Records is decoded by the
// typed endpoint methods; Start/Count echo the paging params.
type page struct {
	Records json.RawMessage `json:"records"`
	Start   int             `json:"start"`
	Count   int             `json:"count"`
}

// get performs a rate-limited GET with retry. 429/5xx/network errors are
// retried up to maxRetries attempts with exponential backoff (baseDelay
// doubling per attempt); any other 4xx fails immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*page, error) {
	attempt := 0
	op := func() (*page, error) {
		attempt++
		p, err := c.getOnce(ctx, path, params)
		if err == nil {
			return p, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		if attempt < c.maxRetries {
			c.logger.Warn("gridiron request failed, retrying",
				"path", path, "attempt", attempt, "error", err)
		}
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2

	// maxRetries counts total attempts, so N-1 retries after the first.
	p, err := backoff.RetryWithData(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(c.maxRetries-1)), ctx))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// getOnce performs a single request, classifying the response.
func (c *Client) getOnce(ctx context.Context, path string, params url.Values) (*page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Path: path, Body: truncate(body, 200)}
	}

	var result page
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return &result, nil
}

// paginate drives an exhaustive offset/limit loop over an endpoint, invoking
// decode for each page's raw records. Terminates on a short or empty page.
func (c *Client) paginate(ctx context.Context, path string, params url.Values, decode func(json.RawMessage) (int, error)) error {
	if params == nil {
		params = url.Values{}
	}
	start := 0
	for pageNum := 0; pageNum < maxPages; pageNum++ {
		params.Set("start", fmt.Sprintf("%d", start))
		params.Set("count", fmt.Sprintf("%d", c.pageSize))

		resp, err := c.get(ctx, path, params)
		if err != nil {
			return err
		}

		n, err := decode(resp.Records)
		if err != nil {
			return fmt.Errorf("decode %s page at %d: %w", path, start, err)
		}

		if n < c.pageSize {
			return nil
		}
		start += n
	}
	return fmt.Errorf("pagination of %s exceeded %d pages", path, maxPages)
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
