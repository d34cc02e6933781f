package audit

import (
	"context"
	"log/slog"
)

// Sink receives events off the hot path. KafkaSink is the production
// implementation.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from the publisher's relay channel and pushes
// them to a sink. It keeps broker latency out of ledger transactions.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				// The store already holds the event; losing a stream copy is
				// tolerable, losing the worker is not.
				w.logger.WarnContext(ctx, "audit sink publish failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
