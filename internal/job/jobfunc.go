// Package job adapts closures to shardqueue jobs.
package job

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilJobFunc is returned when a JobFunc is nil.
var ErrNilJobFunc = errors.New("nil JobFunc")

// jobFunc lets us pass plain closures to the shard executor.
type jobFunc func(context.Context) error

func (f jobFunc) Run(ctx context.Context) error {
	if f == nil {
		return fmt.Errorf("jobfunc: %w", ErrNilJobFunc)
	}
	return f(ctx)
}

// New creates a new job function from a closure.
func New(fn func(context.Context) error) jobFunc {
	return jobFunc(fn)
}

// Replay is a reconciliation job: one provisional record of a cache family
// replayed against the backend.
type Replay struct {
	Family string
	TempID string
	Fn     func(context.Context) error
}

// Run implements shardqueue.Job.
func (r Replay) Run(ctx context.Context) error {
	if r.Fn == nil {
		return fmt.Errorf("replay %s/%s: %w", r.Family, r.TempID, ErrNilJobFunc)
	}
	if err := r.Fn(ctx); err != nil {
		return fmt.Errorf("replay %s/%s: %w", r.Family, r.TempID, err)
	}
	return nil
}
