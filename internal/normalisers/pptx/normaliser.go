// Package pptx extracts text from PowerPoint presentations.
package pptx

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/normalisers/ooxml"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const slidePrefix = "ppt/slides/slide"

// Normaliser handles PPTX presentations.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format tag this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatPresentation
}

// Normalise extracts every slide's text in slide order, one paragraph
// per line. Legacy binary .ppt files are not OOXML and fail here unless
// a converted <path>.pptx sits next to them.
func (n *Normaliser) Normalise(_ context.Context, path string) (string, error) {
	return ooxml.WithAlternate(path, ".pptx", extract)
}

func extract(path string) (string, error) {
	elements, err := ooxml.PartitionFile(path, ooxml.Numbered(slidePrefix))
	if err != nil {
		return "", fmt.Errorf("pptx: %w", err)
	}
	if len(elements) == 0 {
		return "", domain.ErrExtractionEmpty
	}
	return strings.Join(elements, "\n"), nil
}
