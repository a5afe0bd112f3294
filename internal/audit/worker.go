package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher's outbox into a sink, decoupling business
// operations from sink latency.
type Worker struct {
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run forwards entries until the context is cancelled. Publish failures are
// logged and skipped so one bad entry cannot stall the trail; the store
// already holds the authoritative copy.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "audit fan-out failed",
					"entry_id", entry.ID,
					"error", err,
				)
			}
		}
	}
}
