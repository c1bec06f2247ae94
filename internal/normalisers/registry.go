package normalisers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/normalisers/docx"
	"github.com/custodia-labs/docpilot/internal/normalisers/pdf"
	"github.com/custodia-labs/docpilot/internal/normalisers/plaintext"
	"github.com/custodia-labs/docpilot/internal/normalisers/pptx"
	"github.com/custodia-labs/docpilot/internal/normalisers/xlsx"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps format tags to normalisers.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.Format]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make(map[domain.Format]driven.Normaliser),
	}
}

// Defaults returns a registry holding every built-in normaliser.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(xlsx.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser, replacing any previous one for its format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[n.Format()] = n
}

// Get returns the normaliser for a format.
func (r *Registry) Get(format domain.Format) (driven.Normaliser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.normalisers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionUnsupported, format)
	}
	return n, nil
}

// Formats returns all registered format tags in ascending order.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]domain.Format, 0, len(r.normalisers))
	for f := range r.normalisers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
