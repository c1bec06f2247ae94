// Package azure provides an LLM service adapter for Azure OpenAI chat
// deployments.
package azure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultTimeout bounds each request.
const DefaultTimeout = 120 * time.Second

// Config holds configuration for the Azure chat service.
type Config struct {
	// APIKey is the Azure OpenAI resource key (required).
	APIKey string

	// Endpoint is the resource URL (required).
	Endpoint string

	// APIVersion is the REST API version.
	APIVersion string

	// Deployment is the chat deployment name (required).
	Deployment string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService completes prompts with an Azure OpenAI deployment.
type LLMService struct {
	client     *openai.Client
	deployment string
}

// NewLLMService creates a new Azure chat service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure: endpoint and API key are required")
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("azure: chat deployment is required")
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

	return &LLMService{
		client:     openai.NewClientWithConfig(clientCfg),
		deployment: deployment,
	}, nil
}

// Complete sends a system and user message to the deployment.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	rsp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.deployment,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("azure chat: %w", err)
	}
	if len(rsp.Choices) == 0 {
		return "", fmt.Errorf("azure: no response choices returned")
	}
	return rsp.Choices[0].Message.Content, nil
}

// ModelName returns the deployment name.
func (s *LLMService) ModelName() string {
	return s.deployment
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
