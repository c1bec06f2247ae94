package domain

import (
	"path/filepath"
	"strings"
)

// Format tags the extraction strategy for a local document.
type Format int

// Available formats.
const (
	FormatUnknown Format = iota
	FormatPDF
	FormatWordDocument
	FormatPresentation
	FormatSpreadsheet
	FormatText
)

var formatByExt = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatWordDocument,
	".pptx": FormatPresentation,
	".ppt":  FormatPresentation,
	".xlsx": FormatSpreadsheet,
	".xls":  FormatSpreadsheet,
	".txt":  FormatText,
	".csv":  FormatText,
	".html": FormatText,
}

// FormatFromPath selects a format from the file extension.
// Matching is case-insensitive.
func FormatFromPath(path string) Format {
	return formatByExt[strings.ToLower(filepath.Ext(path))]
}

// String returns the string representation.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWordDocument:
		return "word"
	case FormatPresentation:
		return "presentation"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}
