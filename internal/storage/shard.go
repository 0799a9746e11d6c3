package storage

import (
	"context"
	"sync"
	"time"

	dErrors "medtransit/pkg/domain-errors"
)

// numShards spreads keys over independent mutexes so unrelated ids do not
// contend while the same id always maps to the same lock.
const numShards = 128

// defaultTxTimeout bounds how long a caller waits for its shard.
const defaultTxTimeout = 5 * time.Second

// ShardedTx provides in-process per-key serialization over any Store.
type ShardedTx[K ~string, V any] struct {
	shards  [numShards]sync.Mutex
	store   Store[K, V]
	timeout time.Duration
}

// NewShardedTx wraps store. A zero timeout uses the default.
func NewShardedTx[K ~string, V any](store Store[K, V], timeout time.Duration) *ShardedTx[K, V] {
	return &ShardedTx[K, V]{store: store, timeout: timeout}
}

func (t *ShardedTx[K, V]) RunInTx(ctx context.Context, id K, fn func(ctx context.Context, store Store[K, V]) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &t.shards[shardFor(string(id))]
	shard.Lock()
	defer shard.Unlock()

	// The wait for the lock may have outlived the caller.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.store)
}

// shardFor hashes with FNV-1a.
func shardFor(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h % numShards
}
