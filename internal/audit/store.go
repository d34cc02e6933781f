package audit

import "context"

// Store is append-only; events are never mutated or deleted. Appends are
// monotonic and need no locking beyond write durability in the backing
// store.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
