package donation

import (
	"context"
	"sync"
	"time"

	dErrors "bloodbank/pkg/domain-errors"
)

// Tx provides the atomic boundary for a donation: the history append and the
// ledger credit must commit together or not at all. Implementations may wrap
// a database transaction or, in-memory, a per-donor lock.
type Tx interface {
	RunInTx(ctx context.Context, donorKey string, fn func(ctx context.Context) error) error
}

// shardedTx serializes donations per donor using sharded mutexes: a hash of
// the donor ID picks a shard, so two donations by the same donor can never
// interleave their cooldown check and append, while unrelated donors rarely
// contend.
const numTxShards = 128

// defaultTxTimeout is the maximum duration for a donation transaction.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx builds the in-memory transaction boundary.
func NewShardedTx() Tx {
	return &shardedTx{}
}

func (t *shardedTx) RunInTx(ctx context.Context, donorKey string, fn func(ctx context.Context) error) error {
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

	shard := hashKey(donorKey) % numTxShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// hashKey uses FNV-1a for shard distribution.
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
