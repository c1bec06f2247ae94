package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

func configured() domain.Settings {
	s := domain.DefaultSettings()
	s.Azure = domain.AzureSettings{
		APIKey:              "az-key",
		Endpoint:            "https://res.openai.azure.com",
		APIVersion:          "2024-02-15-preview",
		ChatDeployment:      "gpt4",
		EmbeddingDeployment: "ada",
	}
	s.Keys = domain.APIKeys{OpenAI: "sk", Anthropic: "sk-ant", Gemini: "gm"}
	return s
}

func TestEmbeddingProviders_AutoOrder(t *testing.T) {
	providers, err := EmbeddingProviders(configured())
	require.NoError(t, err)

	var names []string
	for _, p := range providers {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"azure", "openai", "local"}, names)
}

func TestEmbeddingProviders_AutoSkipsUnconfigured(t *testing.T) {
	s := domain.DefaultSettings()
	s.Azure.APIKey = "k"
	s.Azure.Endpoint = "https://x"

	providers, err := EmbeddingProviders(s)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "local", providers[0].Name())
}

func TestEmbeddingProviders_Pinned(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.AIProvider
		settings domain.Settings
		want     string
		wantErr  error
	}{
		{"pinned openai", domain.AIProviderOpenAI, configured(), "openai", nil},
		{"pinned local", domain.AIProviderLocal, domain.DefaultSettings(), "local", nil},
		{"pinned azure unconfigured", domain.AIProviderAzure, domain.DefaultSettings(), "", domain.ErrEmbeddingProviderFailure},
		{"pinned anthropic", domain.AIProviderAnthropic, configured(), "", domain.ErrUnsupportedType},
		{"unknown", domain.AIProvider("cohere"), configured(), "", domain.ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.settings
			s.Embedding.Provider = tt.provider

			providers, err := EmbeddingProviders(s)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, providers, 1)
			assert.Equal(t, tt.want, providers[0].Name())
		})
	}
}

func TestCreateEmbeddingService_PinnedChainIsActive(t *testing.T) {
	s := domain.DefaultSettings()
	s.Embedding.Provider = domain.AIProviderLocal

	c, err := CreateEmbeddingService(s)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "local", c.Name())
	assert.Equal(t, 384, c.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		provider  domain.AIProvider
		wantModel string
	}{
		{domain.AIProviderAzure, "gpt4"},
		{domain.AIProviderOpenAI, "gpt-4o-mini"},
		{domain.AIProviderAnthropic, "claude-3-5-sonnet-latest"},
		{domain.AIProviderLocal, "llama3.2"},
	}
	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			s := configured()
			s.LLM.Provider = tt.provider

			svc, err := CreateLLMService(context.Background(), s)
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateLLMService_Errors(t *testing.T) {
	s := domain.DefaultSettings()
	_, err := CreateLLMService(context.Background(), s)
	assert.Error(t, err, "azure without credentials")

	s.LLM.Provider = domain.AIProviderAuto
	_, err = CreateLLMService(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	// Should not panic
	result.Close()
}

func TestInit(t *testing.T) {
	s := configured()
	s.LLM.Provider = domain.AIProviderLocal

	result := Init(context.Background(), s)
	require.NoError(t, result.Err())
	defer result.Close()
	assert.Equal(t, []string{"azure", "openai", "local"}, result.Embedding.Providers())
	assert.Equal(t, "llama3.2", result.LLM.ModelName())
}

func TestInit_PartialFailure(t *testing.T) {
	s := configured()
	s.LLM.Provider = domain.AIProviderAnthropic
	s.Keys.Anthropic = ""

	result := Init(context.Background(), s)
	defer result.Close()

	assert.NotNil(t, result.Embedding)
	assert.NoError(t, result.EmbeddingErr)
	assert.Nil(t, result.LLM)
	assert.Error(t, result.LLMErr)
	assert.ErrorIs(t, result.Err(), result.LLMErr)
}
