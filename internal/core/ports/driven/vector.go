package driven

import "github.com/custodia-labs/docpilot/internal/core/domain"

// VectorIndex is an in-memory similarity index over chunk embeddings.
// Index position joins a vector to its chunk.
type VectorIndex interface {
	// Rebuild replaces the whole index. vectors and chunks must have
	// equal length and every vector the same dimension.
	Rebuild(vectors [][]float32, chunks []domain.Chunk) error

	// Search returns up to k hits by descending inner product. k is
	// clamped to [1, count]; an empty index yields an empty result.
	Search(query []float32, k int) ([]domain.SearchHit, error)

	// Stats returns the chunk count and dimension.
	Stats() domain.VectorStats
}

// IndexSnapshot is the persisted pair of artifacts.
type IndexSnapshot struct {
	Vectors [][]float32
	Chunks  []domain.Chunk

	// Provider is the embedding provider that produced the vectors.
	Provider string
}

// IndexStore persists index snapshots. Both artifacts are written and
// read together.
type IndexStore interface {
	// Save writes a snapshot, replacing any previous one.
	Save(snapshot IndexSnapshot) error

	// Load reads the current snapshot.
	// Returns domain.ErrIndexNotBuilt if nothing has been saved.
	Load() (*IndexSnapshot, error)

	// Dir returns the storage directory.
	Dir() string
}
