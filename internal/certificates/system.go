package certificates

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/pagination"
)

// System defines the public contract for the certificate lifecycle.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Certificate, error)
	Find(ctx context.Context, id uuid.UUID) (*Certificate, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Certificate], error)

	// Update edits customer and shipment metadata while the certificate is
	// editable. A REJECTED certificate returns to DRAFT.
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Certificate, error)

	// SetSamples narrows the cited sample set while DRAFT, PENDING or REJECTED.
	// Every reference must already be bound.
	SetSamples(ctx context.Context, id uuid.UUID, cmd SetSamplesCommand) (*Certificate, error)

	Submit(ctx context.Context, id uuid.UUID) (*Certificate, error)

	// Approve assigns the month-scoped report number, records the approver and
	// freezes the cited samples, all in one transaction. Calling it on an
	// already approved certificate is a no-op returning the existing number.
	Approve(ctx context.Context, id uuid.UUID, actor string) (*Certificate, error)

	Reject(ctx context.Context, id uuid.UUID, cmd RejectCommand) (*Certificate, error)

	// Cancel is terminal and cascades CANCELLED to the certificate's
	// non-terminal loading orders. The report number is not freed.
	Cancel(ctx context.Context, id uuid.UUID) (*Certificate, error)

	// PDF streams the rendered certificate artifact, rendering lazily when the
	// approval-time attempt failed.
	PDF(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
}
