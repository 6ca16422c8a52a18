package shardqueue

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
)

func TestShardExecutor_FIFOPerKey(t *testing.T) {
	t.Parallel()
	ex := NewShardExecutor(Config{Shards: 2, QueueSize: 16})
	defer ex.Stop()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if err := ex.Submit(context.Background(), "cases", JobFunc(func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := ex.Barrier(context.Background(), "cases"); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order: %v", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 jobs, got %d", len(got))
	}
}

func TestShardExecutor_Retry(t *testing.T) {
	t.Parallel()
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 10, MaxAttempts: 3, BaseBackoff: 5 * time.Millisecond})
	defer ex.Stop()

	var attempts int32
	job := JobFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return clienterrors.NewHTTPError(503, "", "create case")
		}
		return nil
	})
	if err := ex.Submit(context.Background(), "k1", job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := ex.Barrier(context.Background(), "k1"); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestShardExecutor_IrrecoverableFailsFast(t *testing.T) {
	t.Parallel()
	var handled []error
	var mu sync.Mutex
	ex := NewShardExecutor(Config{Shards: 1, MaxAttempts: 5, BaseBackoff: time.Millisecond, ErrorHandler: func(err error) {
		mu.Lock()
		handled = append(handled, err)
		mu.Unlock()
	}})
	defer ex.Stop()

	var attempts int32
	_ = ex.Submit(context.Background(), "k", JobFunc(func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return clienterrors.NewHTTPError(422, `{"message":"bad"}`, "create case")
	}))
	if err := ex.Barrier(context.Background(), "k"); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if n := atomic.LoadInt32(&attempts); n != 1 {
		t.Fatalf("irrecoverable error retried %d times", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || !clienterrors.IsValidation(handled[0]) {
		t.Fatalf("error handler got %v", handled)
	}
}

func TestShardExecutor_SubmitAfterStop(t *testing.T) {
	t.Parallel()
	ex := NewShardExecutor(Config{})
	ex.Stop()
	ex.Stop()
	if err := ex.Submit(context.Background(), "k", JobFunc(func(context.Context) error { return nil })); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
}

func TestShardExecutor_QueueFull(t *testing.T) {
	t.Parallel()
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond})
	release := make(chan struct{})
	defer func() {
		close(release)
		ex.Stop()
	}()

	block := JobFunc(func(context.Context) error { <-release; return nil })
	_ = ex.Submit(context.Background(), "k", block) // picked up by the worker
	time.Sleep(20 * time.Millisecond)
	_ = ex.Submit(context.Background(), "k", block) // fills the queue

	err := ex.Submit(context.Background(), "k", block)
	var qf *QueueFullError
	if !errors.As(err, &qf) || !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected QueueFullError, got %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("INFLUENTER_SYNC_SHARDS", "8")
	t.Setenv("INFLUENTER_SYNC_MAX_ATTEMPTS", "5")
	t.Setenv("INFLUENTER_SYNC_BASE_BACKOFF", "200ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Shards != 8 || cfg.MaxAttempts != 5 || cfg.BaseBackoff != 200*time.Millisecond {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.QueueSize != 128 || cfg.MaxInterval != 20*time.Second {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestShardExecutor_LogsThroughConfiguredLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ex := NewShardExecutor(Config{Shards: 1, Logger: &logger})
	ex.Stop()

	out := buf.String()
	if !strings.Contains(out, "shardqueue: stopping executor") || !strings.Contains(out, `"component":"shardqueue"`) {
		t.Fatalf("expected executor logs in the configured logger, got %q", out)
	}
}
