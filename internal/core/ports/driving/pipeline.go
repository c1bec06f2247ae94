package driving

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// ExtractionService turns staged documents into processed text.
type ExtractionService interface {
	// Extract processes every staged document once.
	Extract(ctx context.Context, progress domain.ProgressFunc) (*domain.ExtractStats, error)
}

// IndexService builds the vector index from processed text.
type IndexService interface {
	// Build chunks, embeds and persists every processed text.
	Build(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexStats, error)
}

// MaintenanceService serialises full rebuilds.
type MaintenanceService interface {
	// Reindex runs extract, then build, then reloads readers.
	// Returns domain.ErrMaintenanceInProgress if a rebuild is running.
	Reindex(ctx context.Context) (*domain.ReindexResult, error)

	// InProgress returns true while a rebuild is running.
	InProgress() bool
}
