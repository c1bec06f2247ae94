package flat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// IndexType is reported in index statistics.
const IndexType = "flat-ip"

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact inner-product index held in memory.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   []float32 // row-major, len == len(chunks)*dimension
	chunks    []domain.Chunk
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Rebuild replaces the index contents.
func (idx *Index) Rebuild(vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrIndexCorrupt, len(vectors), len(chunks))
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: zero-dimension vectors", domain.ErrInvalidInput)
		}
	}

	flat := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrInvalidInput, i, len(v), dim)
		}
		flat = append(flat, v...)
	}

	owned := make([]domain.Chunk, len(chunks))
	copy(owned, chunks)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dimension = dim
	idx.vectors = flat
	idx.chunks = owned
	return nil
}

// Search returns the k highest-scoring chunks by inner product.
// Equal scores keep index order.
func (idx *Index) Search(query []float32, k int) ([]domain.SearchHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := len(idx.chunks)
	if count == 0 {
		return []domain.SearchHit{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			domain.ErrInvalidInput, len(query), idx.dimension)
	}

	k = clamp(k, 1, count)

	type scored struct {
		pos   int
		score float32
	}
	scores := make([]scored, count)
	for i := 0; i < count; i++ {
		row := idx.vectors[i*idx.dimension : (i+1)*idx.dimension]
		scores[i] = scored{pos: i, score: dot(query, row)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	hits := make([]domain.SearchHit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.SearchHit{
			Chunk: idx.chunks[scores[i].pos],
			Score: scores[i].score,
		}
	}
	return hits, nil
}

// Stats returns the chunk count and dimension.
func (idx *Index) Stats() domain.VectorStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return domain.VectorStats{
		Count:     len(idx.chunks),
		Dimension: idx.dimension,
		Type:      IndexType,
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
