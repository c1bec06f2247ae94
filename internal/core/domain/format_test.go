package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"report.pdf", FormatPDF},
		{"REPORT.PDF", FormatPDF},
		{"notes/plan.docx", FormatWordDocument},
		{"deck.pptx", FormatPresentation},
		{"legacy.ppt", FormatPresentation},
		{"budget.xlsx", FormatSpreadsheet},
		{"old.xls", FormatSpreadsheet},
		{"readme.txt", FormatText},
		{"data.csv", FormatText},
		{"page.html", FormatText},
		{"image.png", FormatUnknown},
		{"noextension", FormatUnknown},
		{"legacy.doc", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "pdf", FormatPDF.String())
	assert.Equal(t, "word", FormatWordDocument.String())
	assert.Equal(t, "presentation", FormatPresentation.String())
	assert.Equal(t, "spreadsheet", FormatSpreadsheet.String())
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
