// Package tui provides an interactive terminal chat over the document index.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Answer answers questions from the index.
	Answer driving.AnswerService

	// Documents exposes processed text for browsing.
	Documents driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(answer driving.AnswerService, documents driving.DocumentService) *Ports {
	return &Ports{
		Answer:    answer,
		Documents: documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
