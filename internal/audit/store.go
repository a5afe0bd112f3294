package audit

import "context"

// Store persists trail entries. Append-only: implementations expose no update
// or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
}
