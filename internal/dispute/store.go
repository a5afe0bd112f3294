package dispute

import (
	"context"

	"veridoc/pkg/domain"
)

// Store persists disputes. Update is compare-and-swap on status: the write
// succeeds only when the stored dispute is still in expectedStatus, so two
// concurrent transitions cannot both win.
type Store interface {
	Save(ctx context.Context, d Dispute) error
	FindByID(ctx context.Context, id string) (Dispute, error)
	Update(ctx context.Context, d Dispute, expectedStatus domain.DisputeStatus) error
	List(ctx context.Context) ([]Dispute, error)
}
