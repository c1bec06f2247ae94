package cli

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/docpilot/internal/adapters/driven/ai"
	"github.com/custodia-labs/docpilot/internal/core/domain"
)

type mockSettingsService struct {
	settings    domain.Settings
	values      map[string]string
	validateErr error
	setErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultSettings(), values: map[string]string{}}
}

func (m *mockSettingsService) Get() (domain.Settings, error) { return m.settings, nil }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := []string{"retrieval.top_k", "chunking.size", "source.folder"}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

type mockIngestService struct {
	stats       *domain.IngestStats
	err         error
	opts        domain.IngestOptions
	repaired    bool
	cleaned     bool
	removed     int
	repairStats *domain.RepairStats
}

func (m *mockIngestService) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestStats, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if opts.Progress != nil {
		opts.Progress(1, 2, "a.pdf")
		opts.Progress(2, 2, "b.docx")
	}
	if m.stats == nil {
		return &domain.IngestStats{}, nil
	}
	return m.stats, nil
}

func (m *mockIngestService) Repair(context.Context) (*domain.RepairStats, error) {
	m.repaired = true
	if m.repairStats == nil {
		return &domain.RepairStats{}, nil
	}
	return m.repairStats, nil
}

func (m *mockIngestService) Cleanup(context.Context) (int, error) {
	m.cleaned = true
	return m.removed, nil
}

type mockExtractionService struct {
	called bool
	err    error
}

func (m *mockExtractionService) Extract(_ context.Context, progress domain.ProgressFunc) (*domain.ExtractStats, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	if progress != nil {
		progress(1, 1, "a")
	}
	return &domain.ExtractStats{Processed: 3, Skipped: 1}, nil
}

type mockIndexService struct {
	called bool
	err    error
}

func (m *mockIndexService) Build(_ context.Context, progress domain.ProgressFunc) (*domain.IndexStats, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	if progress != nil {
		progress(5, 5, "")
	}
	return &domain.IndexStats{Documents: 2, Chunks: 5, Dimension: 384, Provider: "local"}, nil
}

type mockAnswerService struct {
	answer   string
	hits     []domain.SearchHit
	stats    domain.VectorStats
	err      error
	question string
	k        int
	reloads  int
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (string, error) {
	m.question = question
	return m.answer, m.err
}

func (m *mockAnswerService) Retrieve(_ context.Context, question string, k int) ([]domain.SearchHit, error) {
	m.question = question
	m.k = k
	return m.hits, m.err
}

func (m *mockAnswerService) Reload() { m.reloads++ }

func (m *mockAnswerService) Stats(context.Context) (domain.VectorStats, error) {
	return m.stats, m.err
}

type mockDocumentService struct {
	docs map[string]string
}

func (m *mockDocumentService) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockDocumentService) Get(_ context.Context, name string) (string, error) {
	content, ok := m.docs[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return content, nil
}

type mockConsolidateService struct {
	path   string
	result *domain.UploadResult
	err    error
}

func (m *mockConsolidateService) Consolidate(context.Context) (string, error) {
	return m.path, m.err
}

func (m *mockConsolidateService) Publish(context.Context) (*domain.UploadResult, error) {
	return m.result, m.err
}

type mockMaintenanceService struct {
	err error
}

func (m *mockMaintenanceService) Reindex(context.Context) (*domain.ReindexResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ReindexResult{
		Extract: domain.ExtractStats{Processed: 4},
		Index:   domain.IndexStats{Documents: 4, Chunks: 12, Dimension: 1536, Provider: "azure"},
	}, nil
}

func (m *mockMaintenanceService) InProgress() bool { return false }

type mockAuthenticator struct {
	loginErr  error
	loggedIn  bool
	loggedOut bool
}

func (m *mockAuthenticator) Login(_ context.Context, prompt func(*oauth2.DeviceAuthResponse)) error {
	if m.loginErr != nil {
		return m.loginErr
	}
	prompt(&oauth2.DeviceAuthResponse{
		UserCode:        "ABCD-1234",
		VerificationURI: "https://microsoft.com/devicelogin",
	})
	m.loggedIn = true
	return nil
}

func (m *mockAuthenticator) Logout() error {
	m.loggedOut = true
	return nil
}

type testServices struct {
	settings    *mockSettingsService
	ingest      *mockIngestService
	extract     *mockExtractionService
	index       *mockIndexService
	answer      *mockAnswerService
	documents   *mockDocumentService
	consolidate *mockConsolidateService
	maintenance *mockMaintenanceService
	auth        *mockAuthenticator
	probe       []ai.ProviderStatus
}

// setupTestServices installs mocks for every service and returns a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		settings:    newMockSettingsService(),
		ingest:      &mockIngestService{},
		extract:     &mockExtractionService{},
		index:       &mockIndexService{},
		answer:      &mockAnswerService{},
		documents:   &mockDocumentService{docs: map[string]string{}},
		consolidate: &mockConsolidateService{},
		maintenance: &mockMaintenanceService{},
		auth:        &mockAuthenticator{},
	}

	original := services
	services = &Services{
		Settings:    ts.settings,
		Ingest:      ts.ingest,
		Extraction:  ts.extract,
		Index:       ts.index,
		Answer:      ts.answer,
		Documents:   ts.documents,
		Consolidate: ts.consolidate,
		Maintenance: ts.maintenance,
		Auth:        func() (Authenticator, error) { return ts.auth, nil },
		Probe: func(context.Context) []ai.ProviderStatus {
			return ts.probe
		},
	}

	return ts, func() { services = original }
}

var errBoom = errors.New("boom")
