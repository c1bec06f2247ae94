package driven

import "github.com/custodia-labs/docpilot/internal/core/domain"

// Chunker splits processed text into overlapping chunks.
type Chunker interface {
	// Chunk returns the chunks of content in position order. The same
	// input always yields the same chunks.
	Chunk(source, content string) []domain.Chunk
}
