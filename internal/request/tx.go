package request

import (
	"context"
	"sync"
	"time"

	dErrors "bloodbank/pkg/domain-errors"
)

// Tx provides the atomic boundary for a request decision: the availability
// check, the debit, and the Approved record must form one unit. Keys are
// blood groups: same-group requests serialize, different groups run in
// parallel.
type Tx interface {
	RunInTx(ctx context.Context, groupKey string, fn func(ctx context.Context) error) error
}

// With only eight possible keys a shard per group would be enough, but the
// sharded layout mirrors the donation boundary and costs nothing.
const numTxShards = 32

const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx builds the in-memory transaction boundary.
func NewShardedTx() Tx {
	return &shardedTx{}
}

func (t *shardedTx) RunInTx(ctx context.Context, groupKey string, fn func(ctx context.Context) error) error {
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

	shard := hashKey(groupKey) % numTxShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
