// Package azure provides an embedding service adapter for Azure OpenAI
// deployments.
package azure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultTimeout bounds each request.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the Azure embedding service.
type Config struct {
	// APIKey is the Azure OpenAI resource key (required).
	APIKey string

	// Endpoint is the resource URL, e.g. https://myres.openai.azure.com (required).
	Endpoint string

	// APIVersion is the REST API version.
	APIVersion string

	// Deployment is the embedding deployment name (required).
	Deployment string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings with an Azure OpenAI deployment.
type EmbeddingService struct {
	client     *openai.Client
	deployment string
}

// NewEmbeddingService creates a new Azure embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure: endpoint and API key are required")
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("azure: embedding deployment is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}
	deployment := cfg.Deployment
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(clientCfg),
		deployment: deployment,
	}, nil
}

// Name returns the provider identifier.
func (s *EmbeddingService) Name() string {
	return string(domain.AIProviderAzure)
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	rsp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.deployment),
	})
	if err != nil {
		return nil, fmt.Errorf("azure embeddings: %w", err)
	}
	if len(rsp.Data) != len(texts) {
		return nil, fmt.Errorf("azure: got %d embeddings for %d inputs", len(rsp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range rsp.Data {
		if data.Index < 0 || data.Index >= len(texts) || embeddings[data.Index] != nil {
			return nil, fmt.Errorf("azure: bad embedding index %d", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	return embeddings, nil
}

// Dimensions returns 0 since deployments can wrap any model.
func (s *EmbeddingService) Dimensions() int {
	return 0
}

// ModelName returns the deployment name.
func (s *EmbeddingService) ModelName() string {
	return s.deployment
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
