package driving

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// DocumentService exposes processed text documents.
type DocumentService interface {
	// List returns processed document names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Get returns the content of a processed document.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) (string, error)
}

// ConsolidateService joins processed documents and publishes the result.
type ConsolidateService interface {
	// Consolidate writes the combined document and returns its path.
	Consolidate(ctx context.Context) (string, error)

	// Publish consolidates and uploads the result to the document source.
	Publish(ctx context.Context) (*domain.UploadResult, error)
}
