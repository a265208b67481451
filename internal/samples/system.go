package samples

import (
	"context"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/pkg/pagination"
)

// System defines the public contract for the sample store.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, kind Kind, cmd CreateCommand) (*Sample, error)

	// Import creates a sample and records all of its results in a single
	// transaction; a failure on any result rolls back the whole row.
	Import(ctx context.Context, kind Kind, cmd CreateCommand, results []ResultCommand) (*Sample, error)

	Find(ctx context.Context, kind Kind, id uuid.UUID) (*Sample, error)
	List(ctx context.Context, kind Kind, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Sample], error)

	// Results returns the sample's results ordered by property display order.
	Results(ctx context.Context, kind Kind, sampleID uuid.UUID) ([]Result, error)

	// RecordResult inserts or updates the measurement for (sample, property),
	// classifying it against the active specification read through the same
	// transaction, then refreshes the sample's cached verdict.
	RecordResult(ctx context.Context, kind Kind, sampleID uuid.UUID, cmd ResultCommand) (*Result, error)

	// SealComposite marks a composite as the shift-closing sample and forbids
	// further result edits.
	SealComposite(ctx context.Context, id uuid.UUID) (*Sample, error)

	// CheckDrift re-derives every stored verdict from its snapshot and reports
	// mismatches. The caches must always match; a non-clean report indicates a
	// defect or manual database intervention.
	CheckDrift(ctx context.Context) (*DriftReport, error)
}
