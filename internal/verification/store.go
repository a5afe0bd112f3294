package verification

import "context"

// Store persists completed verifications. Save is called exactly once per
// verification with the fully populated record.
type Store interface {
	Save(ctx context.Context, v Verification) error
	FindByID(ctx context.Context, id string) (Verification, error)
	// List returns verifications for one customer, or all when customerID is
	// empty, newest first.
	List(ctx context.Context, customerID string) ([]Verification, error)
}
