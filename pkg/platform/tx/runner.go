package tx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	dErrors "bloodbank/pkg/domain-errors"
	"bloodbank/pkg/platform/sentinel"
)

const defaultTimeout = 5 * time.Second

// maxRetries bounds the restart of a transaction that lost a serialization
// race. Business refusals pass through untouched; only contention retries.
const maxRetries = 3

// Runner wraps each processor's atomic unit in one serializable database
// transaction. Stores and the ledger pick the *sql.Tx out of the context, so
// the history append and the stock mutation commit together or not at all.
// Serializable isolation is what makes the unit a real boundary: two units
// that read the same history and both write cannot both commit, so a
// cooldown check cannot be overtaken between its read and its append. The
// loser restarts here; the key the in-memory boundaries shard on is not
// needed. The same runner serves the donation and request boundaries.
type Runner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

func (r *Runner) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = r.runOnce(ctx, fn)
		if !isSerializationConflict(err) {
			return err
		}
	}
	return dErrors.Wrap(err, dErrors.CodeTransient, "transaction kept conflicting")
}

func (r *Runner) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// isSerializationConflict recognizes a lost serialization race anywhere in
// the chain: the sentinel from a store translation, or a raw driver error
// from a statement or from the commit itself.
func isSerializationConflict(err error) bool {
	if errors.Is(err, sentinel.ErrConflict) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}
