package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultHost = "https://api.elections.kalshi.com/trade-api/v2"

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger

	// Retry/pacing knobs; see doRequest and the FetchAll loops.
	maxRateLimitRetries int
	backoffBase         time.Duration
	transientRetryDelay time.Duration
	pageDelay           time.Duration
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kalshi api error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string, logger *zap.Logger) *Client {
	if host == "" {
		host = defaultHost
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		host:                host,
		apiKey:              apiKey,
		httpClient:          httpClient,
		logger:              logger,
		maxRateLimitRetries: 3,
		backoffBase:         time.Second,
		transientRetryDelay: 500 * time.Millisecond,
		pageDelay:           300 * time.Millisecond,
	}
}

func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("KALSHI-ACCESS-KEY", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// doRequest wraps do with the retry policy: 429 retries up to
// maxRateLimitRetries with exponential backoff (base * 2^attempt), a transport
// error retries exactly once after a fixed short delay, and every other HTTP
// error propagates immediately.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	transientRetried := false
	attempt := 0
	for {
		body, err := c.do(ctx, path, query)
		if err == nil {
			return body, nil
		}

		apiErr, ok := err.(*APIError)
		switch {
		case ok && apiErr.Status == http.StatusTooManyRequests && attempt < c.maxRateLimitRetries:
			backoff := c.backoffBase * (1 << attempt)
			attempt++
			c.logWarn("rate limited, backing off", path, err, zap.Duration("backoff", backoff), zap.Int("attempt", attempt))
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
		case !ok && !transientRetried:
			transientRetried = true
			c.logWarn("transient request failure, retrying once", path, err)
			if err := sleepCtx(ctx, c.transientRetryDelay); err != nil {
				return nil, err
			}
		default:
			c.logWarn("request failed", path, err)
			return nil, err
		}
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}

func (c *Client) logWarn(msg, path string, err error, fields ...zap.Field) {
	if c.logger == nil {
		return
	}
	fields = append([]zap.Field{zap.String("endpoint", path), zap.Error(err)}, fields...)
	c.logger.Warn(msg, fields...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
