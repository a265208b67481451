package catalog

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for catalog operations. Every other
// domain component reads its reference data through this interface.
type System interface {
	Handler() *Handler

	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
	CreateProduct(ctx context.Context, cmd ProductCommand) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, cmd ProductCommand) (*Product, error)

	ListProperties(ctx context.Context, activeOnly bool) ([]Property, error)
	CreateProperty(ctx context.Context, cmd PropertyCommand) (*Property, error)

	ListAnalysisTypes(ctx context.Context) ([]AnalysisType, error)

	// PropertiesFor returns the properties captured by the given analysis type,
	// ordered by the binding's display order.
	PropertiesFor(ctx context.Context, analysisTypeCode string, activeOnly bool) ([]AnalysisProperty, error)

	// SpecFor returns the active specification for a (product, property) pair,
	// or ErrNoSpecification when none is active.
	SpecFor(ctx context.Context, productID, propertyID uuid.UUID) (*Specification, error)

	// ReplaceSpec retires the current active specification of the pair and
	// inserts the new one in a single transaction (append-only history).
	ReplaceSpec(ctx context.Context, cmd SpecCommand) (*Specification, error)

	// SpecHistory returns all specification rows for the pair, newest first.
	SpecHistory(ctx context.Context, productCode, propertyIdentifier string) ([]Specification, error)
}
