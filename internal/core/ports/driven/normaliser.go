package driven

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// Normaliser extracts plain text from files of a single format.
//
// Normalisers are registered per domain.Format; the extraction
// service dispatches on the tag selected from the file extension.
type Normaliser interface {
	// Format returns the format tag this normaliser handles.
	Format() domain.Format

	// Normalise reads the file at path and returns its text.
	// Returns domain.ErrExtractionEmpty when the file holds no text.
	Normalise(ctx context.Context, path string) (string, error)
}

// NormaliserRegistry maps format tags to normalisers.
type NormaliserRegistry interface {
	// Register adds a normaliser, replacing any previous one for its format.
	Register(n Normaliser)

	// Get returns the normaliser for a format.
	// Returns domain.ErrExtractionUnsupported if none is registered.
	Get(format domain.Format) (Normaliser, error)

	// Formats returns all registered format tags.
	Formats() []domain.Format
}

// IntegrityChecker verifies that a staged file is usable.
type IntegrityChecker interface {
	// Check returns an error wrapping domain.ErrDownloadCorrupted if the
	// file at path is truncated, empty or not of its declared format.
	Check(path string) error
}
