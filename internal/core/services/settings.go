package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
)

// setting binds one config key, and optionally one env var, to a field.
type setting struct {
	key   string
	env   string
	kind  valueKind
	apply func(s *domain.Settings, v any)
}

func str(f func(*domain.Settings, string)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { f(s, v.(string)) }
}

func integer(f func(*domain.Settings, int)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { f(s, v.(int)) }
}

// settingsTable lists every supported key.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingsTable = []setting{
	{key: "data.dir", env: "DATA_DIR", apply: str(func(s *domain.Settings, v string) { s.DataDir = v })},
	{key: "request.timeout", kind: kindDuration, apply: func(s *domain.Settings, v any) {
		s.RequestTimeout = v.(time.Duration)
	}},

	{key: "source.type", env: "DOCPILOT_SOURCE", apply: str(func(s *domain.Settings, v string) {
		s.Source.Type = domain.SourceType(v)
	})},
	{key: "source.folder", env: "ONEDRIVE_FOLDER_PATH", apply: str(func(s *domain.Settings, v string) {
		s.Source.FolderPath = v
	})},
	{key: "source.upload_folder", apply: str(func(s *domain.Settings, v string) { s.Source.UploadFolder = v })},
	{key: "source.recursive", kind: kindBool, apply: func(s *domain.Settings, v any) {
		s.Source.Recursive = v.(bool)
	}},
	{key: "source.excludes", kind: kindList, apply: func(s *domain.Settings, v any) {
		s.Source.Excludes = v.([]string)
	}},
	{key: "microsoft.client_id", env: "MICROSOFT_CLIENT_ID", apply: str(func(s *domain.Settings, v string) {
		s.Source.ClientID = v
	})},
	{key: "microsoft.client_secret", env: "MICROSOFT_CLIENT_SECRET", apply: str(func(s *domain.Settings, v string) {
		s.Source.ClientSecret = v
	})},
	{key: "microsoft.tenant_id", env: "MICROSOFT_TENANT_ID", apply: str(func(s *domain.Settings, v string) {
		s.Source.TenantID = v
	})},
	{key: "google.access_token", env: "GOOGLE_ACCESS_TOKEN", apply: str(func(s *domain.Settings, v string) {
		s.Source.GoogleAccessToken = v
	})},

	{key: "azure.api_key", env: "AZURE_OPENAI_API_KEY", apply: str(func(s *domain.Settings, v string) { s.Azure.APIKey = v })},
	{key: "azure.endpoint", env: "AZURE_OPENAI_ENDPOINT", apply: str(func(s *domain.Settings, v string) {
		s.Azure.Endpoint = v
	})},
	{key: "azure.api_version", env: "AZURE_OPENAI_API_VERSION", apply: str(func(s *domain.Settings, v string) {
		s.Azure.APIVersion = v
	})},
	{key: "azure.chat_deployment", env: "AZURE_OPENAI_DEPLOYMENT", apply: str(func(s *domain.Settings, v string) {
		s.Azure.ChatDeployment = v
	})},
	{key: "azure.embedding_deployment", env: "AZURE_OPENAI_EMBEDDING_MODEL", apply: str(func(s *domain.Settings, v string) {
		s.Azure.EmbeddingDeployment = v
	})},

	{key: "openai.api_key", env: "OPENAI_API_KEY", apply: str(func(s *domain.Settings, v string) { s.Keys.OpenAI = v })},
	{key: "anthropic.api_key", env: "ANTHROPIC_API_KEY", apply: str(func(s *domain.Settings, v string) { s.Keys.Anthropic = v })},
	{key: "gemini.api_key", env: "GEMINI_API_KEY", apply: str(func(s *domain.Settings, v string) { s.Keys.Gemini = v })},
	{key: "ollama.base_url", env: "OLLAMA_BASE_URL", apply: str(func(s *domain.Settings, v string) { s.OllamaBaseURL = v })},

	{key: "embedding.provider", env: "EMBEDDING_PROVIDER", apply: str(func(s *domain.Settings, v string) {
		s.Embedding.Provider = parseProvider(v)
	})},
	{key: "embedding.model", env: "EMBEDDING_MODEL_NAME", apply: str(func(s *domain.Settings, v string) {
		s.Embedding.Model = v
	})},
	{key: "embedding.local_model", apply: str(func(s *domain.Settings, v string) { s.Embedding.LocalModel = v })},
	{key: "embedding.batch_size", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Embedding.BatchSize = v })},

	{key: "llm.provider", env: "LLM_PROVIDER", apply: str(func(s *domain.Settings, v string) {
		s.LLM.Provider = parseProvider(v)
	})},
	{key: "llm.model", apply: str(func(s *domain.Settings, v string) { s.LLM.Model = v })},
	{key: "llm.temperature", kind: kindFloat, apply: func(s *domain.Settings, v any) {
		s.LLM.Temperature = float32(v.(float64))
	}},
	{key: "llm.max_tokens", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.LLM.MaxTokens = v })},

	{key: "chunking.size", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Chunking.Size = v })},
	{key: "chunking.overlap", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Chunking.Overlap = v })},
	{key: "retrieval.top_k", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Retrieval.TopK = v })},
}

// parseProvider accepts "ollama" as an alias for the local provider.
func parseProvider(v string) domain.AIProvider {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "ollama" {
		return domain.AIProviderLocal
	}
	return domain.AIProvider(v)
}

// SettingsService resolves settings from defaults, the TOML config store
// and environment variables.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a settings service reading the process
// environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// WithEnv replaces the environment lookup. Intended for tests.
func (s *SettingsService) WithEnv(getenv func(string) string) *SettingsService {
	s.getenv = getenv
	return s
}

// Get resolves the current settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	for _, def := range settingsTable {
		if s.configStore != nil {
			if raw, ok := s.configStore.Get(def.key); ok {
				v, err := convert(def.kind, raw)
				if err != nil {
					return settings, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, def.key, err)
				}
				def.apply(&settings, v)
			}
		}
		if def.env == "" {
			continue
		}
		if raw := s.getenv(def.env); raw != "" {
			v, err := convert(def.kind, raw)
			if err != nil {
				return settings, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, def.env, err)
			}
			def.apply(&settings, v)
		}
	}

	return settings, nil
}

// Set validates and stores a value for a known key.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
	}
	v, err := convert(def.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if d, ok := v.(time.Duration); ok {
		v = d.String()
	}
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every supported key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, def := range settingsTable {
		keys[i] = def.key
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the resolved settings for values the pipeline cannot run with.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", domain.ErrInvalidInput)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, chunking.size)", domain.ErrInvalidInput)
	}
	switch settings.Embedding.Provider {
	case domain.AIProviderAuto, domain.AIProviderAzure, domain.AIProviderOpenAI, domain.AIProviderLocal:
	default:
		return fmt.Errorf("%w: embedding.provider %q", domain.ErrUnsupportedType, settings.Embedding.Provider)
	}
	if !settings.LLM.Provider.IsValid() || settings.LLM.Provider == domain.AIProviderAuto {
		return fmt.Errorf("%w: llm.provider %q", domain.ErrUnsupportedType, settings.LLM.Provider)
	}
	switch settings.Source.Type {
	case domain.SourceOneDrive, domain.SourceGoogleDrive:
	default:
		return fmt.Errorf("%w: source.type %q", domain.ErrUnsupportedType, settings.Source.Type)
	}
	return nil
}

func lookupSetting(key string) (setting, bool) {
	for _, def := range settingsTable {
		if def.key == key {
			return def, true
		}
	}
	return setting{}, false
}

// convert coerces a TOML or env value into the Go type a setting expects.
func convert(kind valueKind, raw any) (any, error) {
	switch kind {
	case kindString:
		return fmt.Sprint(raw), nil
	case kindInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			return int(v), nil
		default:
			return strconv.Atoi(strings.TrimSpace(fmt.Sprint(raw)))
		}
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		default:
			return strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(raw)), 64)
		}
	case kindBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
		return strconv.ParseBool(strings.TrimSpace(fmt.Sprint(raw)))
	case kindDuration:
		return time.ParseDuration(strings.TrimSpace(fmt.Sprint(raw)))
	case kindList:
		switch v := raw.(type) {
		case []string:
			return v, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, fmt.Sprint(item))
			}
			return out, nil
		default:
			var out []string
			for _, part := range strings.Split(fmt.Sprint(raw), ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("unknown kind %d", kind)
}
