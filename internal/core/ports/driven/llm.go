package driven

import "context"

// CompletionRequest is a single system plus user prompt.
type CompletionRequest struct {
	// System constrains the model's behaviour.
	System string

	// User carries the context and question.
	User string

	// Temperature controls randomness.
	Temperature float32

	// MaxTokens bounds the generated text.
	MaxTokens int
}

// LLMService completes prompts with a language model.
type LLMService interface {
	// Complete returns the model's raw text response.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the model or deployment in use.
	ModelName() string

	// Close releases resources.
	Close() error
}
