package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure IndexBuilder implements the interface.
var _ driving.IndexService = (*IndexBuilder)(nil)

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 64

// IndexBuilder chunks and embeds processed text and persists the result
// as a fresh index.
type IndexBuilder struct {
	processedDir string
	chunker      driven.Chunker
	embedder     driven.EmbeddingService
	store        driven.IndexStore
	batchSize    int
}

// NewIndexBuilder creates an index builder. batchSize <= 0 selects
// DefaultBatchSize.
func NewIndexBuilder(
	processedDir string,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
	batchSize int,
) *IndexBuilder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &IndexBuilder{
		processedDir: processedDir,
		chunker:      chunker,
		embedder:     embedder,
		store:        store,
		batchSize:    batchSize,
	}
}

// Build replaces the persisted index with one built from every processed
// text. Files are read in lexical order so rebuilds are reproducible.
func (b *IndexBuilder) Build(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexStats, error) {
	defer logger.Timer("index build")()

	names, err := processedNames(b.processedDir)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(b.processedDir, name+".txt"))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		chunks = append(chunks, b.chunker.Chunk(name, string(data))...)
	}
	logger.Info("Chunked %d documents into %d chunks", len(names), len(chunks))

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+b.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		batch, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d chunks",
				domain.ErrEmbeddingProviderFailure, len(batch), len(texts))
		}
		for _, v := range batch {
			vectors = append(vectors, Normalize(v))
		}

		if progress != nil {
			progress(end, len(chunks), "")
		}
	}

	snap := driven.IndexSnapshot{
		Vectors:  vectors,
		Chunks:   chunks,
		Provider: b.embedder.Name(),
	}
	if err := b.store.Save(snap); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	stats := &domain.IndexStats{
		Documents: len(names),
		Chunks:    len(chunks),
		Provider:  snap.Provider,
	}
	if len(vectors) > 0 {
		stats.Dimension = len(vectors[0])
	}
	logger.Info("Stored %d chunks | dim=%d", stats.Chunks, stats.Dimension)
	return stats, nil
}

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// processedNames returns the keys of every processed text in lexical
// order of file name, as os.ReadDir reports them.
func processedNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read processed dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return names, nil
}
