// Package docx extracts text from Word documents.
package docx

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

// documentPart holds the main body text; headers and footers are ignored.
const documentPart = "word/document.xml"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format tag this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatWordDocument
}

// Normalise extracts the document body, one paragraph per line.
// A failing file is retried once as <path>.docx, which is how some
// sync clients store documents whose extension was lost.
func (n *Normaliser) Normalise(_ context.Context, path string) (string, error) {
	return ooxml.WithAlternate(path, ".docx", extract)
}

func extract(path string) (string, error) {
	elements, err := ooxml.PartitionFile(path, ooxml.Exact(documentPart))
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	if len(elements) == 0 {
		return "", domain.ErrExtractionEmpty
	}
	return strings.Join(elements, "\n"), nil
}
