// Package fetcher retrieves crawled pages over HTTP and reduces them to plain
// text for the tokenizer. Requests are throttled in fixed batches and retried
// on transient failures.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/resilience"
	"github.com/microcosm-cc/bluemonday"
)

var (
	bodyRegex          = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	repeatedSpaceRegex = regexp.MustCompile(`\s+`)
)

// Fetcher downloads pages and extracts their visible body text.
type Fetcher struct {
	client   *http.Client
	cfg      config.FetcherConfig
	throttle *Throttle
	policy   *bluemonday.Policy
	logger   *slog.Logger
}

// New creates a Fetcher. A nil client gets one with cfg.Timeout.
func New(cfg config.FetcherConfig, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	return &Fetcher{
		client:   client,
		cfg:      cfg,
		throttle: NewThrottle(cfg.BatchSize, cfg.Pause),
		policy:   policy,
		logger:   slog.Default().With("component", "fetcher"),
	}
}

// Fetch returns the body text of the page at url. Errors wrap
// ErrFetchFailed unless ctx was cancelled. Every attempt, retries included,
// takes a slot from the throttle.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var raw string
	err := resilience.Retry(ctx, "fetch "+url, resilience.RetryConfig{MaxAttempts: f.cfg.MaxAttempts}, func() error {
		if err := f.throttle.Wait(ctx); err != nil {
			return resilience.Permanent(err)
		}
		body, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		raw = body
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, apperrors.ErrFetchFailed) {
			return "", err
		}
		return "", fmt.Errorf("fetching %s: %v: %w", url, err, apperrors.ErrFetchFailed)
	}
	text := f.ExtractText(raw)
	f.logger.Debug("page fetched", "url", url, "bytes", len(raw), "text_bytes", len(text))
	return text, nil
}

// get performs one request. Client-side failures and unusable content are
// permanent; transport errors and 5xx are retried.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", resilience.Permanent(fmt.Errorf("building request for %s: %v: %w", url, err, apperrors.ErrFetchFailed))
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	res, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return "", fmt.Errorf("fetching %s: status %d", url, res.StatusCode)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", resilience.Permanent(fmt.Errorf("fetching %s: status %d: %w", url, res.StatusCode, apperrors.ErrFetchFailed))
	}
	if contentType := res.Header.Get("Content-Type"); contentType != "" &&
		!strings.Contains(contentType, "html") && !strings.HasPrefix(contentType, "text/plain") {
		return "", resilience.Permanent(fmt.Errorf("fetching %s: unsupported content type %q: %w", url, contentType, apperrors.ErrFetchFailed))
	}

	var reader io.Reader = res.Body
	if f.cfg.MaxBodyBytes > 0 {
		reader = io.LimitReader(res.Body, f.cfg.MaxBodyBytes)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", url, err)
	}
	return string(data), nil
}

// ExtractText strips markup from an HTML document, keeping only the text of
// its body when one is present.
func (f *Fetcher) ExtractText(document string) string {
	if m := bodyRegex.FindStringSubmatch(document); len(m) == 2 {
		document = m[1]
	}
	return strings.TrimSpace(html.UnescapeString(repeatedSpaceRegex.ReplaceAllString(
		f.policy.Sanitize(document), " ",
	)))
}
