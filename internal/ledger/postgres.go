package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bloodbank/internal/domain"
	dErrors "bloodbank/pkg/domain-errors"
	"bloodbank/pkg/platform/sentinel"
	txcontext "bloodbank/pkg/platform/tx"
)

// maxConflictRetries bounds the internal retry on serialization failures.
// Contention is an engine-local condition; business refusals are never
// retried.
const maxConflictRetries = 3

// PostgresLedger implements Ledger on a blood_inventory table. The
// check-then-mutate race of a read-modify-write is closed by a single
// conditional UPDATE: the WHERE clause carries the availability check, so two
// concurrent debits can never jointly overdraw a row.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer returns the enclosing transaction when a processor enrolled this
// call in one, otherwise the pool.
func (l *PostgresLedger) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return l.db
}

// Seed inserts a zero row for every blood group so later debits and balance
// reads never observe a missing record. Existing rows are left untouched.
func (l *PostgresLedger) Seed(ctx context.Context) error {
	const query = `
		INSERT INTO blood_inventory (blood_group, units)
		VALUES ($1, 0)
		ON CONFLICT (blood_group) DO NOTHING
	`
	for _, g := range domain.AllBloodGroups() {
		if _, err := l.db.ExecContext(ctx, query, g.String()); err != nil {
			return fmt.Errorf("seed inventory row %s: %w", g, err)
		}
	}
	return nil
}

func (l *PostgresLedger) Credit(ctx context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "credit units must be positive")
	}
	const query = `
		INSERT INTO blood_inventory (blood_group, units)
		VALUES ($1, $2)
		ON CONFLICT (blood_group) DO UPDATE
		SET units = blood_inventory.units + EXCLUDED.units
	`
	return l.withConflictRetry(ctx, func() error {
		_, err := l.execer(ctx).ExecContext(ctx, query, group.String(), units)
		if err != nil {
			return fmt.Errorf("credit %s: %w", group, translatePQ(err))
		}
		return nil
	})
}

func (l *PostgresLedger) Debit(ctx context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "debit units must be positive")
	}
	const query = `
		UPDATE blood_inventory
		SET units = units - $2
		WHERE blood_group = $1 AND units >= $2
	`
	return l.withConflictRetry(ctx, func() error {
		result, err := l.execer(ctx).ExecContext(ctx, query, group.String(), units)
		if err != nil {
			return fmt.Errorf("debit %s: %w", group, translatePQ(err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("debit %s rows affected: %w", group, err)
		}
		if rows == 0 {
			available, err := l.Balance(ctx, group)
			if err != nil {
				return err
			}
			return &InsufficientStockError{Group: group, Requested: units, Available: available}
		}
		return nil
	})
}

func (l *PostgresLedger) Balance(ctx context.Context, group domain.BloodGroup) (int, error) {
	const query = `SELECT units FROM blood_inventory WHERE blood_group = $1`
	var units int
	err := l.execer(ctx).QueryRowContext(ctx, query, group.String()).Scan(&units)
	if errors.Is(err, sql.ErrNoRows) {
		// Unseeded row reads as zero, matching the lazy-creation contract.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance %s: %w", group, err)
	}
	return units, nil
}

func (l *PostgresLedger) BalanceAll(ctx context.Context) (map[domain.BloodGroup]int, error) {
	const query = `SELECT blood_group, units FROM blood_inventory`
	rows, err := l.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.BloodGroup]int, len(domain.AllBloodGroups()))
	for _, g := range domain.AllBloodGroups() {
		out[g] = 0
	}
	for rows.Next() {
		var (
			groupRaw string
			units    int
		)
		if err := rows.Scan(&groupRaw, &units); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		group, err := domain.ParseBloodGroup(groupRaw)
		if err != nil {
			return nil, fmt.Errorf("inventory row: %w", err)
		}
		out[group] = units
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return out, nil
}

func (l *PostgresLedger) SetStock(ctx context.Context, group domain.BloodGroup, units int) error {
	if units < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "stock units must not be negative")
	}
	const query = `
		INSERT INTO blood_inventory (blood_group, units)
		VALUES ($1, $2)
		ON CONFLICT (blood_group) DO UPDATE SET units = EXCLUDED.units
	`
	_, err := l.execer(ctx).ExecContext(ctx, query, group.String(), units)
	if err != nil {
		return fmt.Errorf("set stock %s: %w", group, translatePQ(err))
	}
	return nil
}

// withConflictRetry re-runs fn a bounded number of times on serialization
// conflicts. When the call is enrolled in an enclosing transaction the retry
// is left to the transaction runner, since a failed tx must restart whole.
func (l *PostgresLedger) withConflictRetry(ctx context.Context, fn func() error) error {
	if _, enlisted := txcontext.From(ctx); enlisted {
		return fn()
	}
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, sentinel.ErrConflict) {
			return err
		}
	}
	return dErrors.Wrap(err, dErrors.CodeTransient, "ledger update kept conflicting")
}

// translatePQ maps Postgres serialization and deadlock failures onto
// sentinel.ErrConflict so retry logic stays driver-agnostic.
func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
		}
	}
	return err
}
