package ledger

import (
	"context"
	"sync"

	"bloodbank/internal/domain"
	dErrors "bloodbank/pkg/domain-errors"
)

// InMemoryLedger keeps one mutex-guarded counter per blood group. All eight
// rows are seeded at construction so lookups never distinguish "missing"
// from "zero". The per-group locks serialize same-group mutations while
// leaving different groups fully parallel.
type InMemoryLedger struct {
	groups map[domain.BloodGroup]*groupRecord
}

type groupRecord struct {
	mu    sync.Mutex
	units int
}

func NewInMemoryLedger() *InMemoryLedger {
	groups := make(map[domain.BloodGroup]*groupRecord, len(domain.AllBloodGroups()))
	for _, g := range domain.AllBloodGroups() {
		groups[g] = &groupRecord{}
	}
	return &InMemoryLedger{groups: groups}
}

func (l *InMemoryLedger) record(group domain.BloodGroup) (*groupRecord, error) {
	rec, ok := l.groups[group]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown blood group: "+group.String())
	}
	return rec, nil
}

func (l *InMemoryLedger) Credit(_ context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "credit units must be positive")
	}
	rec, err := l.record(group)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.units += units
	return nil
}

func (l *InMemoryLedger) Debit(_ context.Context, group domain.BloodGroup, units int) error {
	if units <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "debit units must be positive")
	}
	rec, err := l.record(group)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.units < units {
		return &InsufficientStockError{Group: group, Requested: units, Available: rec.units}
	}
	rec.units -= units
	return nil
}

func (l *InMemoryLedger) Balance(_ context.Context, group domain.BloodGroup) (int, error) {
	rec, err := l.record(group)
	if err != nil {
		return 0, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.units, nil
}

func (l *InMemoryLedger) BalanceAll(_ context.Context) (map[domain.BloodGroup]int, error) {
	out := make(map[domain.BloodGroup]int, len(l.groups))
	for group, rec := range l.groups {
		rec.mu.Lock()
		out[group] = rec.units
		rec.mu.Unlock()
	}
	return out, nil
}

func (l *InMemoryLedger) SetStock(_ context.Context, group domain.BloodGroup, units int) error {
	if units < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "stock units must not be negative")
	}
	rec, err := l.record(group)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.units = units
	return nil
}
