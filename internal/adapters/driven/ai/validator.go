package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// probeTimeout is the maximum time to wait for each provider.
const probeTimeout = 15 * time.Second

// probeText is embedded to check an embedding provider.
const probeText = "connectivity check"

// ProviderStatus is the outcome of probing one provider.
type ProviderStatus struct {
	// Kind is "embedding" or "llm".
	Kind     string
	Provider string
	Model    string

	// Dimensions is the vector size observed for embedding providers.
	Dimensions int

	// Err is nil when the provider answered.
	Err error
}

// OK returns true if the provider answered.
func (p ProviderStatus) OK() bool {
	return p.Err == nil
}

// Probe calls every configured embedding provider and the LLM once.
// Failures are reported per provider and never returned as an error.
func Probe(ctx context.Context, settings domain.Settings) []ProviderStatus {
	var statuses []ProviderStatus

	providers, err := EmbeddingProviders(settings)
	if err != nil {
		statuses = append(statuses, ProviderStatus{
			Kind: "embedding", Provider: settings.Embedding.Provider.String(), Err: err,
		})
	}
	for _, p := range providers {
		statuses = append(statuses, probeEmbedding(ctx, p))
		_ = p.Close()
	}

	model, err := CreateLLMService(ctx, settings)
	if err != nil {
		return append(statuses, ProviderStatus{Kind: "llm", Provider: settings.LLM.Provider.String(), Err: err})
	}
	defer model.Close()
	return append(statuses, probeLLM(ctx, settings.LLM.Provider, model))
}

func probeEmbedding(ctx context.Context, svc driven.EmbeddingService) ProviderStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := ProviderStatus{Kind: "embedding", Provider: svc.Name(), Model: svc.ModelName()}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		status.Err = err
		return status
	}
	status.Dimensions = len(vec)
	return status
}

func probeLLM(ctx context.Context, provider domain.AIProvider, svc driven.LLMService) ProviderStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := svc.Complete(ctx, driven.CompletionRequest{User: "Reply with OK.", MaxTokens: 5})
	return ProviderStatus{Kind: "llm", Provider: provider.String(), Model: svc.ModelName(), Err: err}
}
