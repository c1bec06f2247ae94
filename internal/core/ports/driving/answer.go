package driving

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// AnswerService answers questions from the vector index.
type AnswerService interface {
	// Answer returns the model's answer grounded on retrieved chunks.
	// Returns domain.ErrIndexNotBuilt before the first build.
	Answer(ctx context.Context, question string) (string, error)

	// Retrieve returns the top k chunks for a question.
	Retrieve(ctx context.Context, question string, k int) ([]domain.SearchHit, error)

	// Reload drops the loaded index so the next call reads from disk.
	Reload()

	// Stats returns the loaded index statistics.
	Stats(ctx context.Context) (domain.VectorStats, error)
}
