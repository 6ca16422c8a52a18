package client

import (
	"context"

	"github.com/designcomb/influenter/client/internal/shardqueue"
)

// Executor runs reconciliation jobs in FIFO order per key.
// *shardqueue.ShardExecutor is the default implementation.
type Executor interface {
	Submit(ctx context.Context, key string, job Job) error
	// Barrier returns once every job submitted for key before it has run.
	Barrier(ctx context.Context, key string) error
	Stop()
}

var _ Executor = (*shardqueue.ShardExecutor)(nil)
