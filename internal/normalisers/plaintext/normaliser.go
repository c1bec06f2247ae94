package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const utf8BOM = "\ufeff"

// Normaliser handles plain text, CSV and HTML files. HTML is read as
// raw text without tag stripping.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format tag this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatText
}

// Normalise reads the file as UTF-8. Invalid byte sequences are dropped.
func (n *Normaliser) Normalise(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("plaintext: %w", err)
	}

	content := strings.ToValidUTF8(string(data), "")
	content = strings.TrimPrefix(content, utf8BOM)
	if strings.TrimSpace(content) == "" {
		return "", domain.ErrExtractionEmpty
	}
	return content, nil
}
