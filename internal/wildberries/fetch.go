package wildberries

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/metrics"
)

const maxResponseBytes = 64 << 20

// fetcher issues Wildberries API requests with exponential backoff. The
// marketplace throttles aggressively per minute, so every attempt after the
// first is preceded by an unconditional delay even without a prior error.
type fetcher struct {
	http      *http.Client
	retries   int
	baseDelay time.Duration
	logg      *logger.Logger
	metrics   *metrics.PipelineMetrics

	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func newFetcher(client *http.Client, retries int, baseDelay time.Duration, logg *logger.Logger, m *metrics.PipelineMetrics) *fetcher {
	if retries <= 0 {
		retries = 5
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &fetcher{
		http:      client,
		retries:   retries,
		baseDelay: baseDelay,
		logg:      logg,
		metrics:   m,
		sleep:     sleepCtx,
	}
}

// fetchWithRetry requests rawURL until it succeeds or the retry budget runs
// out. 429 responses honor Retry-After and are retried silently; 401 fails
// immediately since retrying a bad key cannot help. The last concrete error
// is returned on exhaustion.
func (f *fetcher) fetchWithRetry(ctx context.Context, endpoint, apiKey, rawURL string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.retries; attempt++ {
		if attempt > 0 {
			f.metrics.IncFetchRetry(endpoint)
			if err := f.sleep(ctx, f.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		body, retryable, err := f.attempt(ctx, endpoint, apiKey, rawURL, query, attempt)
		if err == nil {
			f.metrics.IncFetch(endpoint, "ok")
			return body, nil
		}
		if !retryable {
			f.metrics.IncFetch(endpoint, "fatal")
			return nil, err
		}
		lastErr = err
		if f.logg != nil {
			f.logg.Warn(ctx, fmt.Sprintf("wildberries %s attempt %d/%d failed: %v", endpoint, attempt+1, f.retries, err))
		}
	}

	f.metrics.IncFetch(endpoint, "exhausted")
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("wildberries %s: max retries reached", endpoint))
}

// attempt performs one request. The second return reports whether the caller
// may retry; rate-limit waits happen here so the error that escapes on
// exhaustion is the throttling one.
func (f *fetcher) attempt(ctx context.Context, endpoint, apiKey, rawURL string, query url.Values, attempt int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building wildberries request")
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Authorization", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("wildberries %s request", endpoint))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "wildberries rejected the request: check your API key")

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := f.backoff(attempt)
		if hint := retryAfterSeconds(resp.Header.Get("Retry-After")); hint > 0 {
			wait = hint
		}
		if err := f.sleep(ctx, wait); err != nil {
			return nil, false, err
		}
		return nil, true, pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("wildberries %s throttled", endpoint))

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("wildberries %s returned %d: %s", endpoint, resp.StatusCode, string(body)))
		if err2 := f.sleep(ctx, f.backoff(attempt)); err2 != nil {
			return nil, false, err2
		}
		return nil, true, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reading wildberries %s response", endpoint))
	}
	return body, false, nil
}

func (f *fetcher) backoff(exp int) time.Duration {
	d := f.baseDelay
	for i := 0; i < exp; i++ {
		d *= 2
	}
	return d
}

func retryAfterSeconds(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
