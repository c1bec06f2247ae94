// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"

	azureembed "github.com/custodia-labs/docpilot/internal/adapters/driven/embedding/azure"
	"github.com/custodia-labs/docpilot/internal/adapters/driven/embedding/chain"
	ollamaembed "github.com/custodia-labs/docpilot/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docpilot/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docpilot/internal/adapters/driven/llm/anthropic"
	azurellm "github.com/custodia-labs/docpilot/internal/adapters/driven/llm/azure"
	geminillm "github.com/custodia-labs/docpilot/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docpilot/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docpilot/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// InitResult contains the AI services built from settings. A service that
// could not be built is nil and its error field says why.
type InitResult struct {
	Embedding *chain.Chain
	LLM       driven.LLMService

	EmbeddingErr error
	LLMErr       error
}

// Err joins the construction errors, or returns nil when both services exist.
func (r *InitResult) Err() error {
	return errors.Join(r.EmbeddingErr, r.LLMErr)
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		_ = r.Embedding.Close()
	}
	if r.LLM != nil {
		_ = r.LLM.Close()
	}
}

// Init builds the embedding chain and the LLM service independently, so
// indexing still works when only the answer model is misconfigured.
func Init(ctx context.Context, settings domain.Settings) *InitResult {
	result := &InitResult{}
	result.Embedding, result.EmbeddingErr = CreateEmbeddingService(settings)
	result.LLM, result.LLMErr = CreateLLMService(ctx, settings)
	return result
}

// CreateEmbeddingService builds the fallback chain. In auto mode it holds
// every configured provider in priority order; a pinned provider must be
// configured and is the only member.
func CreateEmbeddingService(settings domain.Settings) (*chain.Chain, error) {
	providers, err := EmbeddingProviders(settings)
	if err != nil {
		return nil, err
	}
	return chain.New(providers...)
}

// EmbeddingProviders returns the embedding providers the chain would use.
func EmbeddingProviders(settings domain.Settings) ([]driven.EmbeddingService, error) {
	if settings.Embedding.Pinned() {
		svc, err := createEmbedding(settings.Embedding.Provider, settings)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, fmt.Errorf("%w: %s is pinned but not configured",
				domain.ErrEmbeddingProviderFailure, settings.Embedding.Provider)
		}
		return []driven.EmbeddingService{svc}, nil
	}

	var providers []driven.EmbeddingService
	for _, p := range domain.EmbeddingFallbackOrder() {
		svc, err := createEmbedding(p, settings)
		if err != nil {
			return nil, err
		}
		if svc != nil {
			providers = append(providers, svc)
		}
	}
	return providers, nil
}

// createEmbedding returns nil when the provider lacks credentials.
func createEmbedding(provider domain.AIProvider, s domain.Settings) (driven.EmbeddingService, error) {
	switch provider {
	case domain.AIProviderAzure:
		if !s.Azure.IsConfigured() || s.Azure.EmbeddingDeployment == "" {
			return nil, nil
		}
		return embedding(azureembed.NewEmbeddingService(azureembed.Config{
			APIKey:     s.Azure.APIKey,
			Endpoint:   s.Azure.Endpoint,
			APIVersion: s.Azure.APIVersion,
			Deployment: s.Azure.EmbeddingDeployment,
			Timeout:    s.RequestTimeout,
		}))

	case domain.AIProviderOpenAI:
		if s.Keys.OpenAI == "" {
			return nil, nil
		}
		return embedding(openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  s.Keys.OpenAI,
			Model:   s.Embedding.Model,
			Timeout: s.RequestTimeout,
		}))

	case domain.AIProviderLocal:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: s.OllamaBaseURL,
			Model:   s.Embedding.LocalModel,
			Timeout: s.RequestTimeout,
		}), nil

	case domain.AIProviderAnthropic, domain.AIProviderGemini:
		return nil, fmt.Errorf("%w: %s does not provide embeddings, use azure, openai or local",
			domain.ErrUnsupportedType, provider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, provider)
	}
}

// CreateLLMService creates the answer model for the configured provider.
func CreateLLMService(ctx context.Context, settings domain.Settings) (driven.LLMService, error) {
	s := settings
	model := s.LLM.Model
	if model == "" {
		model = domain.DefaultLLMModels()[s.LLM.Provider]
	}

	switch s.LLM.Provider {
	case domain.AIProviderAzure:
		return llm(azurellm.NewLLMService(azurellm.Config{
			APIKey:     s.Azure.APIKey,
			Endpoint:   s.Azure.Endpoint,
			APIVersion: s.Azure.APIVersion,
			Deployment: s.Azure.ChatDeployment,
			Timeout:    s.RequestTimeout,
		}))

	case domain.AIProviderOpenAI:
		return llm(openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  s.Keys.OpenAI,
			Model:   model,
			Timeout: s.RequestTimeout,
		}))

	case domain.AIProviderAnthropic:
		return llm(anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  s.Keys.Anthropic,
			Model:   model,
			Timeout: s.RequestTimeout,
		}))

	case domain.AIProviderGemini:
		return llm(geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: s.Keys.Gemini,
			Model:  model,
		}))

	case domain.AIProviderLocal:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: s.OllamaBaseURL,
			Model:   model,
			Timeout: s.RequestTimeout,
		}), nil

	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, s.LLM.Provider)
	}
}

// embedding and llm drop the concrete pointer on error so a failed
// constructor never yields a non-nil interface holding a nil pointer.
func embedding[T driven.EmbeddingService](svc T, err error) (driven.EmbeddingService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func llm[T driven.LLMService](svc T, err error) (driven.LLMService, error) {
	if err != nil {
		return nil, err
	}
	return svc, nil
}
