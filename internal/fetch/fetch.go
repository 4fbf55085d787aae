// Package fetch is the shared HTTP client behind workflow runs. It retries
// transient failures with backoff and hands parsed documents to the caller.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"javtidy/internal/htmldom"
)

const (
	defaultUserAgent = "javtidy/1.0"
	maxBodyBytes     = 8 << 20
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: http %d", e.URL, e.Status)
}

// Temporary reports whether retrying could help.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Client fetches and parses HTML documents.
type Client struct {
	http        *http.Client
	maxAttempts int
	userAgent   string
	backoff     time.Duration
	log         *slog.Logger
}

// New builds a client. maxAttempts bounds tries per URL, requestTimeout is
// per attempt.
func New(requestTimeout time.Duration, maxAttempts int, log *slog.Logger) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		http:        &http.Client{Timeout: requestTimeout},
		maxAttempts: maxAttempts,
		userAgent:   defaultUserAgent,
		backoff:     500 * time.Millisecond,
		log:         log,
	}
}

// SetUserAgent overrides the User-Agent header sent with every request.
// Blank keeps the default.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// Fetch downloads url and parses it. Transient failures (network errors, 5xx,
// 429) are retried up to the attempt budget; other HTTP errors fail at once.
func (c *Client) Fetch(ctx context.Context, url string) (*htmldom.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.log.Debug("retrying fetch",
				slog.String("url", url), slog.Int("attempt", attempt), slog.Any("error", lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt-1)):
			}
		}
		doc, err := c.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if se, ok := err.(*StatusError); ok && !se.Temporary() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: %d attempts: %w", url, c.maxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*htmldom.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}
	return htmldom.Parse(url, io.LimitReader(resp.Body, maxBodyBytes))
}
