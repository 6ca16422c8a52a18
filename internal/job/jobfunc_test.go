package job

import (
	"context"
	"errors"
	"fmt"
	"testing"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
)

func TestJobFunc_NilGuard(t *testing.T) {
	t.Parallel()
	var jf jobFunc // nil
	if err := jf.Run(context.Background()); !errors.Is(err, ErrNilJobFunc) {
		t.Fatalf("expected ErrNilJobFunc, got %v", err)
	}
}

func TestJobFunc_RunSuccessUsingNew(t *testing.T) {
	t.Parallel()
	type ctxKey string
	key := ctxKey("k")
	ctx := context.WithValue(context.Background(), key, "v")
	called := false
	jf := New(func(c context.Context) error {
		called = true
		if got, ok := c.Value(key).(string); !ok || got != "v" {
			return fmt.Errorf("context value mismatch: %v", c.Value(key))
		}
		return nil
	})
	if err := jf.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected wrapped function to be called")
	}
}

func TestReplay_KeepsClassification(t *testing.T) {
	t.Parallel()
	r := Replay{Family: "cases", TempID: "temp_1", Fn: func(context.Context) error {
		return clienterrors.NewHTTPError(400, "", "create case")
	}}
	err := r.Run(context.Background())
	if !clienterrors.IsIrrecoverable(err) {
		t.Fatalf("wrapped replay error must stay irrecoverable: %v", err)
	}
	if err := (Replay{Family: "cases"}).Run(context.Background()); !errors.Is(err, ErrNilJobFunc) {
		t.Fatalf("expected ErrNilJobFunc, got %v", err)
	}
}
