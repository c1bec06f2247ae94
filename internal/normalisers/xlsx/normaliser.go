// Package xlsx extracts text from Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format tag this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatSpreadsheet
}

// Normalise renders every sheet as a delimiter line followed by one
// tab-joined line per row. Rows whose cells are all blank are dropped.
func (n *Normaliser) Normalise(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("xlsx: opening workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("xlsx: reading sheet %q: %w", sheet, err)
		}

		fmt.Fprintf(&b, "\n--- Sheet: %s ---\n", sheet)
		for _, row := range rows {
			line := strings.Join(row, "\t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	text := b.String()
	if !hasCellText(text) {
		return "", domain.ErrExtractionEmpty
	}
	return text, nil
}

// hasCellText reports whether anything besides sheet delimiters was written.
func hasCellText(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if line == "" || (strings.HasPrefix(line, "--- Sheet: ") && strings.HasSuffix(line, " ---")) {
			continue
		}
		return true
	}
	return false
}
