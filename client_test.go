package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/designcomb/influenter/client/internal/shardqueue"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// countingExecutor runs jobs inline and counts Stop calls.
type countingExecutor struct{ stops int }

func (e *countingExecutor) Submit(ctx context.Context, _ string, j Job) error { return j.Run(ctx) }
func (e *countingExecutor) Barrier(context.Context, string) error { return nil }
func (e *countingExecutor) Stop() { e.stops++ }

func TestNew_EmptyBaseURL(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrEmptyBaseURL) {
		t.Fatalf("expected ErrEmptyBaseURL, got %v", err)
	}
}

func TestOptions_RejectInvalidValues(t *testing.T) {
	cases := map[string]Option{
		"timeout":     WithHTTPTimeout(0),
		"http client": WithHTTPClient(nil),
		"token":       WithTokenSource(nil),
		"fetch guard": WithFetchGuard(-time.Second),
		"per page":    WithPerPage(0),
		"clock":       WithClock(nil),
		"recorder":    WithRecorder(nil),
		"executor":    WithExecutor(nil),
	}
	for name, opt := range cases {
		if _, err := New("http://example.com", opt); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestOptions_Apply(t *testing.T) {
	exec := &countingExecutor{}
	now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	c, err := New("http://example.com",
		WithHTTPTimeout(5*time.Second),
		WithFetchGuard(time.Second),
		WithPerPage(50),
		WithClock(now),
		WithLogger(zerolog.Nop()),
		WithExecutor(exec),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.http.Timeout != 5*time.Second {
		t.Fatalf("http timeout not set: %v", c.http.Timeout)
	}
	d := c.storeDeps(MemoryCache())
	if d.FetchGuard != time.Second || d.PerPage != 50 || !d.Now().Equal(now()) {
		t.Fatalf("unexpected deps: %+v", d)
	}
	if d.BaseURL != "http://example.com" || c.BaseURL() != "http://example.com" {
		t.Fatalf("unexpected base url %q", d.BaseURL)
	}
}

func TestWithHTTPClient_CopiesClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c, err := New("http://example.com", WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if hc.Transport != nil {
		t.Fatalf("caller's client was modified")
	}
	if c.http.Timeout != time.Second {
		t.Fatalf("timeout not carried over")
	}
}

func TestBearerTransport_Headers(t *testing.T) {
	var (
		mu             sync.Mutex
		gotAuth, gotID string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	token := ""
	c, err := New(ts.URL, WithTokenSource(func() string { return token }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	do := func() {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, http.NoBody)
		resp, err := c.http.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		mu.Lock()
		defer mu.Unlock()
	}

	do()
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
	if gotID == "" {
		t.Fatalf("expected X-Request-ID")
	}

	token = "abc"
	firstID := gotID
	do()
	if gotAuth != "Bearer abc" {
		t.Fatalf("unexpected Authorization %q", gotAuth)
	}
	if gotID == firstID {
		t.Fatalf("request id reused")
	}
}

func TestBearerTransport_KeepsCallerRequestID(t *testing.T) {
	var seen string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header.Get("X-Request-ID")
		return &http.Response{StatusCode: 200, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	c, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	req.Header.Set("X-Request-ID", "fixed")
	if _, err := c.http.Do(req); err != nil {
		t.Fatalf("request: %v", err)
	}
	if seen != "fixed" {
		t.Fatalf("request id overwritten: %q", seen)
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatalf("original request mutated")
	}
}

func TestNew_AutoEnableDebugViaEnv(t *testing.T) {
	t.Setenv("INFLUENTER_DEBUG", "true")
	c, err := New("http://example.com")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	bt, ok := c.http.Transport.(*bearerTransport)
	if !ok {
		t.Fatalf("expected bearerTransport on top")
	}
	if _, ok := bt.base.(*debugTransport); !ok {
		t.Fatalf("expected debugTransport to be installed when INFLUENTER_DEBUG=true")
	}
}

func TestDebugTransport_ErrorPath(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	c, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}), WithDebugLogging(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := c.http.Do(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, err := New("http://example.com")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	err = c.exec.Submit(context.Background(), "cases", shardqueue.JobFunc(func(context.Context) error { return nil }))
	if !errors.Is(err, shardqueue.ErrExecutorClosed) {
		t.Fatalf("expected closed executor, got %v", err)
	}
}

func TestClose_LeavesCallerExecutor(t *testing.T) {
	exec := &countingExecutor{}
	c, err := New("http://example.com", WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = c.Close()
	if exec.stops != 0 {
		t.Fatalf("caller executor was stopped")
	}
}

func TestAwaitReconcile_Canceled(t *testing.T) {
	c, err := New("http://example.com", WithExecutor(&countingExecutor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.AwaitReconcile(ctx, FamilyCases); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := c.AwaitReconcile(context.Background(), FamilyCases); err != nil {
		t.Fatalf("AwaitReconcile: %v", err)
	}
}

func TestIsBackPressure(t *testing.T) {
	full := fmt.Errorf("submit: %w", &shardqueue.QueueFullError{Shard: 1, Length: 4, Capacity: 4})
	if !IsBackPressure(full) {
		t.Fatalf("expected back-pressure match")
	}
	if IsBackPressure(errors.New("other")) {
		t.Fatalf("unexpected match")
	}
}
