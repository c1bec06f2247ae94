// Package gemini provides an LLM service adapter for Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string
}

// LLMService completes prompts with a Gemini model.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, model: cfg.Model}, nil
}

// Complete generates a response with the system prompt set as the
// model's system instruction.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	model := s.client.GenerativeModel(s.model)
	configure(model, req)

	rsp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(rsp)
}

// configure applies the request's generation settings to model.
func configure(model *genai.GenerativeModel, req driven.CompletionRequest) {
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens)) //nolint:gosec // bounded by config
	}
}

// responseText joins the text parts of the first candidate.
func responseText(rsp *genai.GenerateContentResponse) (string, error) {
	if rsp == nil || len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil ||
		len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: no response candidates")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Close releases the client connection.
func (s *LLMService) Close() error {
	return s.client.Close()
}
