package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure Maintenance implements the interface.
var _ driving.MaintenanceService = (*Maintenance)(nil)

// Reloader is notified after the persisted index changes.
type Reloader interface {
	Reload()
}

// Maintenance runs full rebuilds one at a time.
type Maintenance struct {
	extractor driving.ExtractionService
	builder   driving.IndexService
	reloader  Reloader

	mu      sync.Mutex
	running atomic.Bool
}

// NewMaintenance creates a maintenance service. reloader may be nil.
func NewMaintenance(extractor driving.ExtractionService, builder driving.IndexService, reloader Reloader) *Maintenance {
	return &Maintenance{
		extractor: extractor,
		builder:   builder,
		reloader:  reloader,
	}
}

// InProgress returns true while a rebuild is running.
func (m *Maintenance) InProgress() bool {
	return m.running.Load()
}

// Reindex extracts new documents, rebuilds the index and reloads readers.
func (m *Maintenance) Reindex(ctx context.Context) (*domain.ReindexResult, error) {
	if !m.mu.TryLock() {
		return nil, domain.ErrMaintenanceInProgress
	}
	defer m.mu.Unlock()
	m.running.Store(true)
	defer m.running.Store(false)

	logger.Section("Reindex")

	extract, err := m.extractor.Extract(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	index, err := m.builder.Build(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	if m.reloader != nil {
		m.reloader.Reload()
	}

	return &domain.ReindexResult{Extract: *extract, Index: *index}, nil
}
