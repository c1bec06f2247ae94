package mcp

import (
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions and reports index statistics.
	Answer driving.AnswerService

	// Documents lists and reads processed documents.
	Documents driving.DocumentService

	// Maintenance rebuilds the index. The reindex tool is only
	// registered when it is set.
	Maintenance driving.MaintenanceService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
