package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/pagination"
)

// System defines the public contract for loading orders.
type System interface {
	Handler() *Handler

	// Create derives a loading order from an approved certificate, issuing the
	// order number and the public token.
	Create(ctx context.Context, cmd CreateCommand) (*LoadingOrder, error)
	Find(ctx context.Context, id uuid.UUID) (*LoadingOrder, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[LoadingOrder], error)

	Start(ctx context.Context, id uuid.UUID) (*LoadingOrder, error)
	Complete(ctx context.Context, id uuid.UUID) (*LoadingOrder, error)
	Cancel(ctx context.Context, id uuid.UUID) (*LoadingOrder, error)

	// PublicByToken resolves the redacted view for a token holder. Unknown
	// tokens map to ErrNotFound without further detail.
	PublicByToken(ctx context.Context, token string) (*PublicView, error)

	// QR returns the PNG encoding the order's public URL.
	QR(ctx context.Context, id uuid.UUID) ([]byte, error)
}
