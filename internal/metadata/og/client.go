// Package og fetches page metadata (Open Graph and Twitter card tags)
// for bookmark enrichment. Fetches are rate limited per host and
// retried on transient failures; callers treat all errors as
// best-effort and never fail a bookmark write on them.
package og

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/readlaterapp/readlater-server/internal/ratelimit"
)

const (
	// Rate limit: 1 request per second per host, burst of 3
	defaultRPS   = 1.0
	defaultBurst = 3

	defaultTimeout   = 10 * time.Second
	defaultRetries   = 2
	defaultUserAgent = "ReadLaterBot/1.0"

	// Pages larger than this are truncated before parsing. Metadata
	// lives in <head>, so 2 MiB is plenty.
	maxBodyBytes = 2 << 20
)

// Sentinel errors for scrape operations.
var (
	ErrNotFound    = errors.New("og: page not found")
	ErrRateLimited = errors.New("og: rate limited by server")
	ErrServer      = errors.New("og: server error")
	ErrNotHTML     = errors.New("og: response is not html")
)

// Scraper is a rate-limited metadata fetcher.
type Scraper struct {
	http      *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	logger    *slog.Logger
	retries   int
	userAgent string
}

// Options configures the scraper. Zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	Logger    *slog.Logger
}

// NewScraper creates a new metadata scraper.
func NewScraper(opts Options) *Scraper {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = defaultRetries
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scraper{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter:   ratelimit.New(defaultRPS, defaultBurst),
		logger:    logger,
		retries:   retries,
		userAgent: userAgent,
	}
}

// Close releases resources held by the scraper.
func (s *Scraper) Close() {
	s.limiter.Stop()
}

// Fetch downloads the page and extracts its metadata.
// Transient failures (network errors, 5xx, 429) are retried.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*PageMetadata, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			// Brief pause before retrying
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		body, err := s.doRequest(ctx, u)
		if err == nil {
			return parsePage(body), nil
		}
		lastErr = err

		// Only transient failures are worth retrying
		if !isRetryable(err) {
			break
		}
		s.logger.Debug("scrape attempt failed, retrying",
			"url", pageURL,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, lastErr
}

// doRequest executes a single HTTP fetch with per-host rate limiting.
func (s *Scraper) doRequest(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := s.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to body read
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

// isRetryable reports whether a fetch error is worth another attempt.
func isRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
