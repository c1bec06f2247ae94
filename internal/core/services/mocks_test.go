package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// --- Document source ---

// mockSource implements driven.DocumentSource over in-memory files.
type mockSource struct {
	mu        sync.Mutex
	items     []domain.RemoteItem
	content   map[string][]byte
	failFirst map[string]int
	calls     map[string]int
	listErr   error
	uploads   []mockUpload
	uploadErr error
}

type mockUpload struct {
	folder string
	name   string
	data   []byte
}

func newMockSource() *mockSource {
	return &mockSource{
		content:   make(map[string][]byte),
		failFirst: make(map[string]int),
		calls:     make(map[string]int),
	}
}

func (m *mockSource) add(item domain.RemoteItem, data []byte) {
	m.items = append(m.items, item)
	m.content[item.ID] = data
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) List(_ context.Context, _ string, _ bool) ([]domain.RemoteItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.items, nil
}

func (m *mockSource) Download(_ context.Context, item domain.RemoteItem) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[item.ID]++
	if m.calls[item.ID] <= m.failFirst[item.ID] {
		return nil, fmt.Errorf("%w: transient", domain.ErrSourceUnavailable)
	}
	data, ok := m.content[item.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockSource) Upload(_ context.Context, data []byte, folder, name string) (*domain.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads = append(m.uploads, mockUpload{folder: folder, name: name, data: data})
	return &domain.UploadResult{ID: "uploaded-1", WebURL: "https://example.test/" + name}, nil
}

func (m *mockSource) downloads(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// --- Integrity checker ---

// corruptMarker makes mockChecker reject a file.
var corruptMarker = []byte("CORRUPT")

// mockChecker treats files starting with corruptMarker, or missing, as corrupted.
type mockChecker struct{}

func (mockChecker) Check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDownloadCorrupted, err)
	}
	if len(data) == 0 || bytes.HasPrefix(data, corruptMarker) {
		return domain.ErrDownloadCorrupted
	}
	return nil
}

// --- Normalisers ---

type mockNormaliser struct {
	format domain.Format
	text   string
	err    error
	calls  int
}

func (m *mockNormaliser) Format() domain.Format { return m.format }

func (m *mockNormaliser) Normalise(_ context.Context, path string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.text != "" {
		return m.text, nil
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

type mockRegistry struct {
	normalisers map[domain.Format]driven.Normaliser
}

func newMockRegistry(ns ...driven.Normaliser) *mockRegistry {
	r := &mockRegistry{normalisers: make(map[domain.Format]driven.Normaliser)}
	for _, n := range ns {
		r.Register(n)
	}
	return r
}

func (r *mockRegistry) Register(n driven.Normaliser) { r.normalisers[n.Format()] = n }

func (r *mockRegistry) Get(f domain.Format) (driven.Normaliser, error) {
	n, ok := r.normalisers[f]
	if !ok {
		return nil, domain.ErrExtractionUnsupported
	}
	return n, nil
}

func (r *mockRegistry) Formats() []domain.Format {
	var out []domain.Format
	for f := range r.normalisers {
		out = append(out, f)
	}
	return out
}

// --- Embedding ---

// vocabEmbedder is a bag-of-words embedder: every distinct lowercase word
// gets its own dimension, so texts sharing a word have positive similarity
// and texts sharing none are orthogonal.
type vocabEmbedder struct {
	mu      sync.Mutex
	dim     int
	vocab   map[string]int
	batches []int
	err     error
}

func newVocabEmbedder(dim int) *vocabEmbedder {
	return &vocabEmbedder{dim: dim, vocab: make(map[string]int)}
}

func (e *vocabEmbedder) Name() string      { return "vocab" }
func (e *vocabEmbedder) Dimensions() int   { return e.dim }
func (e *vocabEmbedder) ModelName() string { return "vocab-test" }
func (e *vocabEmbedder) Close() error      { return nil }

func (e *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *vocabEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.batches = append(e.batches, len(texts))

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dim)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			idx, ok := e.vocab[w]
			if !ok {
				idx = len(e.vocab) % e.dim
				e.vocab[w] = idx
			}
			v[idx]++
		}
		out[i] = v
	}
	return out, nil
}

// --- LLM ---

type mockLLM struct {
	reply    string
	err      error
	requests []driven.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

// --- Index ---

// memoryStore implements driven.IndexStore in memory.
type memoryStore struct {
	snap  *driven.IndexSnapshot
	saves int
	err   error
}

func (s *memoryStore) Save(snap driven.IndexSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.snap = &snap
	return nil
}

func (s *memoryStore) Load() (*driven.IndexSnapshot, error) {
	if s.snap == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	return s.snap, nil
}

func (s *memoryStore) Dir() string { return "memory" }

// --- Pipeline stages ---

type stubExtractor struct {
	stats *domain.ExtractStats
	err   error
	block chan struct{}
}

func (s *stubExtractor) Extract(context.Context, domain.ProgressFunc) (*domain.ExtractStats, error) {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

type stubBuilder struct {
	stats *domain.IndexStats
	err   error
	calls int
}

func (s *stubBuilder) Build(context.Context, domain.ProgressFunc) (*domain.IndexStats, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

type countingReloader struct{ reloads int }

func (r *countingReloader) Reload() { r.reloads++ }

// --- Config store ---

type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	i, _ := m.data[key].(int)
	return i
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	f, _ := m.data[key].(float64)
	return f
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "mock/config.toml" }
func (m *mockConfigStore) Dir() string  { return "mock" }

var errBoom = errors.New("boom")
