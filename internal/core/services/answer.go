package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.AnswerService = (*Orchestrator)(nil)

// Prompt and generation defaults for answers.
const (
	SystemPrompt = "You are a helpful document assistant. Use the context faithfully; " +
		"say 'Not found in docs' if needed."
	ContextSeparator   = "\n\n---\n\n"
	DefaultTopK        = 4
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500
)

// State is the load state of the orchestrator's index.
type State int

// Orchestrator states.
const (
	StateUnloaded State = iota
	StateLoaded
)

// String returns the string representation.
func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "unloaded"
}

// providerPreferrer is implemented by embedders that can be steered to
// the provider which built the index.
type providerPreferrer interface {
	Prefer(name string) error
}

// Orchestrator answers questions by retrieving chunks from the persisted
// index and handing them to a language model. The index is loaded lazily
// and held until Reload.
type Orchestrator struct {
	embedder driven.EmbeddingService
	llm      driven.LLMService
	store    driven.IndexStore
	newIndex func() driven.VectorIndex

	topK        int
	temperature float32
	maxTokens   int

	mu    sync.RWMutex
	state State
	index driven.VectorIndex
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithTopK sets the number of chunks retrieved per answer.
func WithTopK(k int) OrchestratorOption {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithGeneration sets the answer temperature and token limit.
func WithGeneration(temperature float32, maxTokens int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.temperature = temperature
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
	}
}

// NewOrchestrator creates an orchestrator. newIndex builds an empty
// in-memory index each time the persisted snapshot is loaded.
func NewOrchestrator(
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	store driven.IndexStore,
	newIndex func() driven.VectorIndex,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		embedder:    embedder,
		llm:         llm,
		store:       store,
		newIndex:    newIndex,
		topK:        DefaultTopK,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current load state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Reload drops the loaded index. The next call reads both artifacts again.
func (o *Orchestrator) Reload() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.index = nil
	o.state = StateUnloaded
	logger.Debug("Index unloaded")
}

func (o *Orchestrator) loaded() (driven.VectorIndex, error) {
	o.mu.RLock()
	if o.state == StateLoaded {
		idx := o.index
		o.mu.RUnlock()
		return idx, nil
	}
	o.mu.RUnlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateLoaded {
		return o.index, nil
	}

	snap, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	if p, ok := o.embedder.(providerPreferrer); ok && snap.Provider != "" {
		if err := p.Prefer(snap.Provider); err != nil {
			return nil, fmt.Errorf("%w: index was built with %s: %w", domain.ErrQueryFailure, snap.Provider, err)
		}
	}
	idx := o.newIndex()
	if err := idx.Rebuild(snap.Vectors, snap.Chunks); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	o.index = idx
	o.state = StateLoaded

	stats := idx.Stats()
	logger.Info("Loaded index: %d chunks, dim=%d, provider=%s", stats.Count, stats.Dimension, snap.Provider)
	return idx, nil
}

// Retrieve embeds question and returns the k most similar chunks.
func (o *Orchestrator) Retrieve(ctx context.Context, question string, k int) ([]domain.SearchHit, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	idx, err := o.loaded()
	if err != nil {
		return nil, err
	}

	vec, err := o.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrQueryFailure, err)
	}

	hits, err := idx.Search(Normalize(vec), k)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrQueryFailure, err)
	}
	return hits, nil
}

// Answer retrieves context for question and returns the model's reply
// unchanged.
func (o *Orchestrator) Answer(ctx context.Context, question string) (string, error) {
	hits, err := o.Retrieve(ctx, question, o.topK)
	if err != nil {
		return "", err
	}

	answer, err := o.llm.Complete(ctx, driven.CompletionRequest{
		System:      SystemPrompt,
		User:        BuildPrompt(BuildContext(hits), question),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrQueryFailure, o.llm.ModelName(), err)
	}
	return answer, nil
}

// Stats loads the index if needed and returns its statistics.
func (o *Orchestrator) Stats(_ context.Context) (domain.VectorStats, error) {
	idx, err := o.loaded()
	if err != nil {
		return domain.VectorStats{}, err
	}
	return idx.Stats(), nil
}

// BuildContext joins the texts of hits with ContextSeparator.
func BuildContext(hits []domain.SearchHit) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	return strings.Join(texts, ContextSeparator)
}

// BuildPrompt renders the user prompt for a question and its context.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
}
