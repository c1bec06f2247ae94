package driving

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// IngestService mirrors the document source into the local staging area.
type IngestService interface {
	// Ingest downloads new or changed items. Per-item failures are
	// counted, never returned; an error means the run could not start.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestStats, error)

	// Repair re-fetches every staged file that fails its integrity check.
	Repair(ctx context.Context) (*domain.RepairStats, error)

	// Cleanup removes temporary and lock files from the staging area
	// and returns how many were deleted.
	Cleanup(ctx context.Context) (int, error)
}
