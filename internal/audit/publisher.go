package audit

import (
	"context"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. When a relay
// channel is attached, each event is also offered to the background worker
// without ever blocking the calling transaction.
type Publisher struct {
	store Store
	relay chan<- Event
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// WithRelay attaches the channel drained by a Worker (e.g. toward Kafka).
func (p *Publisher) WithRelay(relay chan<- Event) *Publisher {
	p.relay = relay
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.relay != nil {
		select {
		case p.relay <- event:
		default:
			// Relay full; the store already holds the event, so drop rather
			// than block a ledger transaction on a slow broker.
		}
	}
	return nil
}

func (p *Publisher) ListByActor(ctx context.Context, actor string) ([]Event, error) {
	return p.store.ListByActor(ctx, actor)
}

func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
