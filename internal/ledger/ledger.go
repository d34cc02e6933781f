// Package ledger owns the per-group inventory counts. It is the only mutable
// shared state in the engine; every mutation goes through an atomic
// check-and-update so the non-negativity invariant holds under arbitrary
// concurrent callers.
package ledger

import (
	"context"
	"fmt"

	"bloodbank/internal/domain"
)

// Ledger exposes atomic stock mutation keyed by blood group. Operations on
// the same group are serialized; different groups proceed in parallel.
// Implementations must never hold a group's lock across external I/O.
type Ledger interface {
	// Credit adds units (> 0) to the group. Credits cannot violate
	// non-negativity and always succeed against a healthy store.
	Credit(ctx context.Context, group domain.BloodGroup, units int) error

	// Debit subtracts units (> 0) only if the current balance covers them;
	// otherwise it returns *InsufficientStockError and leaves the ledger
	// unchanged. The check and the mutation are a single atomic step.
	Debit(ctx context.Context, group domain.BloodGroup, units int) error

	// Balance returns the current units for a group. Reads may run
	// unsynchronized against mutation but never observe a negative or
	// half-applied value.
	Balance(ctx context.Context, group domain.BloodGroup) (int, error)

	// BalanceAll returns a snapshot of every group's balance for dashboards.
	BalanceAll(ctx context.Context) (map[domain.BloodGroup]int, error)

	// SetStock replaces a group's balance outright (manual correction).
	// Negative values are rejected.
	SetStock(ctx context.Context, group domain.BloodGroup, units int) error
}

// InsufficientStockError reports a refused debit along with the balance seen
// at decision time, so callers can surface the shortfall.
type InsufficientStockError struct {
	Group     domain.BloodGroup
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s stock: requested %d, available %d", e.Group, e.Requested, e.Available)
}
