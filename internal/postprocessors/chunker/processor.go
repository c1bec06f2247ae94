// Package chunker provides a fixed-size text chunker.
package chunker

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// chunkNamespace scopes chunk IDs so they are stable across rebuilds.
var chunkNamespace = uuid.MustParse("6f1c3a4e-9d2b-4c59-8a7e-2b1f0d3c5e71")

// Processor splits text into fixed-size overlapping chunks.
// Sizes are measured in characters (runes), not bytes, so multi-byte
// text is never split inside a code point.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Chunk splits content into chunks tagged with source.
// Each chunk after the first starts overlap characters before the end of
// its predecessor. The final chunk ends exactly at the end of content.
func (p *Processor) Chunk(source, content string) []domain.Chunk {
	if content == "" {
		return nil
	}

	runes := []rune(content)
	contentLen := len(runes)
	step := p.chunkSize - p.overlap

	estimatedChunks := (contentLen / step) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	for start := 0; start < contentLen; start += step {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:       ChunkID(source, position),
			Source:   source,
			Position: position,
			Text:     string(runes[start:end]),
		})
		position++

		if end == contentLen {
			break
		}
	}

	return chunks
}

// ChunkID returns the deterministic identifier for a chunk position.
func ChunkID(source string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(source+"#"+strconv.Itoa(position))).String()
}
