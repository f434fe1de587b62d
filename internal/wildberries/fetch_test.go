package wildberries

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

func newTestFetcher(retries int, baseDelay time.Duration) (*fetcher, *[]time.Duration) {
	var waits []time.Duration
	f := newFetcher(&http.Client{Timeout: 5 * time.Second}, retries, baseDelay, nil, nil)
	f.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return f, &waits
}

func TestFetchReturnsBodyOnFirstSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f, waits := newTestFetcher(5, 10*time.Millisecond)
	body, err := f.fetchWithRetry(context.Background(), "test", "key", srv.URL, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if len(*waits) != 0 {
		t.Fatalf("no delay expected before first attempt, got %v", *waits)
	}
}

func TestFetchSendsAuthorizationHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(1, time.Millisecond)
	if _, err := f.fetchWithRetry(context.Background(), "test", "secret-token", srv.URL, nil); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "secret-token" {
		t.Fatalf("expected api key header, got %q", got)
	}
}

func TestFetchUnauthorizedFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(5, 10*time.Millisecond)
	_, err := f.fetchWithRetry(context.Background(), "test", "bad-key", srv.URL, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("401 must not be retried, got %d calls", calls)
	}
}

func TestFetchHonorsRetryAfterOn429(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f, waits := newTestFetcher(5, 10*time.Millisecond)
	if _, err := f.fetchWithRetry(context.Background(), "test", "key", srv.URL, nil); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected retry after 429, got %d calls", calls)
	}
	found := false
	for _, w := range *waits {
		if w == 7*time.Second {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 7s Retry-After wait, got %v", *waits)
	}
}

func TestFetchBackoffDoubles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	base := 10 * time.Millisecond
	f, waits := newTestFetcher(4, base)
	_, err := f.fetchWithRetry(context.Background(), "test", "key", srv.URL, nil)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}

	// every failed attempt backs off, and every attempt after the first is
	// preceded by a proactive delay; each series must double monotonically
	var proactive, failure []time.Duration
	for i, w := range *waits {
		if i%2 == 0 {
			failure = append(failure, w)
		} else {
			proactive = append(proactive, w)
		}
	}
	assertDoubling := func(name string, series []time.Duration) {
		t.Helper()
		if len(series) < 2 {
			t.Fatalf("%s series too short: %v", name, series)
		}
		for i := 1; i < len(series); i++ {
			if series[i] != series[i-1]*2 {
				t.Fatalf("%s series not doubling: %v", name, series)
			}
		}
	}
	assertDoubling("failure backoff", failure)
	assertDoubling("proactive delay", proactive)
	if failure[0] != base {
		t.Fatalf("first failure backoff should be base delay, got %v", failure[0])
	}
	if proactive[0] != base {
		t.Fatalf("first proactive delay should be base delay, got %v", proactive[0])
	}
}

func TestFetchReturnsLastConcreteErrorOnExhaustion(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(3, time.Millisecond)
	_, err := f.fetchWithRetry(context.Background(), "test", "key", srv.URL, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR with last status, got %v", err)
	}
}

func TestFetchStopsWhenContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := newFetcher(&http.Client{Timeout: time.Second}, 5, time.Millisecond, nil, nil)
	f.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := f.fetchWithRetry(ctx, "test", "key", srv.URL, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
