package domain

import (
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderAuto tries every configured embedding provider in priority order.
	AIProviderAuto AIProvider = "auto"

	// AIProviderAzure is Azure OpenAI.
	AIProviderAzure AIProvider = "azure"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderLocal is a local Ollama instance.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderAuto, AIProviderAzure, AIProviderOpenAI, AIProviderAnthropic,
		AIProviderGemini, AIProviderLocal:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderAuto:
		return "Auto (azure, then openai, then local)"
	case AIProviderAzure:
		return "Azure OpenAI (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderLocal:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// EmbeddingFallbackOrder is the priority order used in auto mode.
func EmbeddingFallbackOrder() []AIProvider {
	return []AIProvider{AIProviderAzure, AIProviderOpenAI, AIProviderLocal}
}

// SourceType identifies the remote document source.
type SourceType string

// Available document sources.
const (
	SourceOneDrive    SourceType = "onedrive"
	SourceGoogleDrive SourceType = "gdrive"
)

// AzureSettings holds Azure OpenAI configuration shared by embeddings and chat.
type AzureSettings struct {
	APIKey     string
	Endpoint   string
	APIVersion string

	// ChatDeployment is the deployment used for answers.
	ChatDeployment string

	// EmbeddingDeployment is the deployment used for embeddings.
	EmbeddingDeployment string
}

// IsConfigured returns true if the endpoint and key are set.
func (a AzureSettings) IsConfigured() bool {
	return a.APIKey != "" && a.Endpoint != ""
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is auto or a single pinned provider.
	Provider AIProvider

	// Model is the OpenAI embedding model name.
	Model string

	// LocalModel is the Ollama embedding model name.
	LocalModel string

	// BatchSize is the number of chunks per provider call.
	BatchSize int
}

// Pinned returns true when a single provider was requested explicitly.
func (e EmbeddingSettings) Pinned() bool {
	return e.Provider != AIProviderAuto && e.Provider != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name. Ignored for Azure, which uses a deployment.
	Model string

	// Temperature controls randomness. Low values favour faithfulness.
	Temperature float32

	// MaxTokens bounds the generated answer.
	MaxTokens int
}

// APIKeys holds credentials for the cloud providers.
type APIKeys struct {
	OpenAI    string
	Anthropic string
	Gemini    string
}

// SourceSettings holds document source configuration.
type SourceSettings struct {
	// Type selects the document source.
	Type SourceType

	// FolderPath is the remote folder to ingest. Empty means the drive root.
	FolderPath string

	// UploadFolder is the remote folder consolidated documents are uploaded to.
	UploadFolder string

	// Recursive enables depth-first traversal of subfolders.
	Recursive bool

	// ClientID is the Microsoft identity platform application ID.
	ClientID string

	// ClientSecret is optional and only used by confidential clients.
	ClientSecret string

	// TenantID is the Microsoft tenant. Defaults to "common".
	TenantID string

	// GoogleAccessToken is a bearer token for Google Drive.
	GoogleAccessToken string

	// Excludes are doublestar globs matched against remote relative paths.
	Excludes []string
}

// ChunkSettings holds chunking configuration.
type ChunkSettings struct {
	Size    int
	Overlap int
}

// RetrievalSettings holds query-time configuration.
type RetrievalSettings struct {
	TopK int
}

// Settings holds all resolved runtime settings.
type Settings struct {
	// DataDir is the root of the local staging area and index.
	DataDir string

	// RequestTimeout bounds each network request.
	RequestTimeout time.Duration

	Source    SourceSettings
	Azure     AzureSettings
	Keys      APIKeys
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkSettings
	Retrieval RetrievalSettings

	// OllamaBaseURL is the local model server endpoint.
	OllamaBaseURL string
}

// DocsDir is the staging area for downloaded documents.
func (s Settings) DocsDir() string {
	return filepath.Join(s.DataDir, "docs")
}

// ProcessedDir holds one .txt file per extracted document.
func (s Settings) ProcessedDir() string {
	return filepath.Join(s.DataDir, "processed")
}

// VectorStoreDir holds the persisted index artifacts.
func (s Settings) VectorStoreDir() string {
	return filepath.Join(s.DataDir, "vector_store")
}

// DefaultSettings returns settings with sensible defaults.
// Cloud credentials are left empty and must come from the environment
// or the config file.
func DefaultSettings() Settings {
	return Settings{
		DataDir:        "data",
		RequestTimeout: 60 * time.Second,
		Source: SourceSettings{
			Type:         SourceOneDrive,
			UploadFolder: "Consolidated",
			Recursive:    true,
			TenantID:     "common",
		},
		Azure: AzureSettings{
			APIVersion: "2024-02-15-preview",
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderAuto,
			Model:      "text-embedding-ada-002",
			LocalModel: "all-minilm",
			BatchSize:  64,
		},
		LLM: LLMSettings{
			Provider:    AIProviderAzure,
			Temperature: 0.2,
			MaxTokens:   500,
		},
		Chunking: ChunkSettings{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			TopK: 4,
		},
		OllamaBaseURL: "http://localhost:11434",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:     "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
