package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}

func TestComplete_SendsSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.EqualValues(t, 300, body["max_tokens"])
		assert.InDelta(t, 0.2, body["temperature"], 1e-6)
		system, ok := body["system"].([]any)
		require.True(t, ok)
		require.Len(t, system, 1)
		assert.Equal(t, "be faithful", system[0].(map[string]any)["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",` +
			`"content":[{"type":"text","text":"Not found "},{"type":"text","text":"in docs"}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":4}}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: srv.URL, Model: "claude-test", MaxRetries: -1})
	require.NoError(t, err)

	out, err := svc.Complete(context.Background(), driven.CompletionRequest{
		System: "be faithful", User: "q", Temperature: 0.2, MaxTokens: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, "Not found in docs", out)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "bad", BaseURL: srv.URL, MaxRetries: -1})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{User: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic messages")
}
