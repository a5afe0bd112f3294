package audit

import (
	"context"
	"log/slog"
	"time"

	"veridoc/pkg/requestcontext"
)

// Sink receives a copy of every entry for external consumers (event bus,
// SIEM). Sink failures never fail the business operation.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Publisher captures structured trail entries. The store is the source of
// truth and is written synchronously; the optional outbox feeds a Worker that
// fans entries out to a sink without adding latency to the request path.
type Publisher struct {
	store  Store
	outbox chan<- Entry
	logger *slog.Logger
}

// NewPublisher builds a publisher. outbox may be nil when no sink is
// configured.
func NewPublisher(store Store, outbox chan<- Entry, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, outbox: outbox, logger: logger}
}

// Emit persists the entry and enqueues it for fan-out. The actor is taken
// from the request context when the entry does not carry one. A full outbox
// drops the fan-out copy, never the stored one.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.UserID == "" {
		entry.UserID = requestcontext.UserID(ctx)
	}
	if err := p.store.Append(ctx, entry); err != nil {
		return err
	}
	if p.outbox != nil {
		select {
		case p.outbox <- entry:
		default:
			p.logger.WarnContext(ctx, "audit outbox full, fan-out copy dropped",
				"entry_id", entry.ID,
			)
		}
	}
	return nil
}

// List returns the trail for one entity in append order.
func (p *Publisher) List(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	return p.store.ListByEntity(ctx, entityType, entityID)
}
