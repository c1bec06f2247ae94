package mcp

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer    string
	stats     domain.VectorStats
	err       error
	statsErr  error
	questions []string
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (string, error) {
	m.questions = append(m.questions, question)
	return m.answer, m.err
}

func (m *mockAnswerService) Retrieve(_ context.Context, _ string, _ int) ([]domain.SearchHit, error) {
	return nil, m.err
}

func (m *mockAnswerService) Reload() {}

func (m *mockAnswerService) Stats(_ context.Context) (domain.VectorStats, error) {
	return m.stats, m.statsErr
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	names   []string
	content map[string]string
	err     error
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockDocumentService) Get(_ context.Context, name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	content, ok := m.content[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return content, nil
}

// mockMaintenance is a mock implementation of driving.MaintenanceService.
type mockMaintenance struct {
	result *domain.ReindexResult
	err    error
	calls  int
}

func (m *mockMaintenance) Reindex(_ context.Context) (*domain.ReindexResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockMaintenance) InProgress() bool { return false }
