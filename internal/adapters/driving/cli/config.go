package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
	Long: `Settings are read from config.toml in the config directory. Environment
variables (and a .env file in the working directory) override the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in config.toml",
	Example: `  docpilot config set source.folder "Company/Policies"
  docpilot config set embedding.provider local
  docpilot config set retrieval.top_k 6`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every supported setting key",
	RunE:  runConfigKeys,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and probe the AI providers",
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	s, err := svc.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	cmd.Println(heading("Source"))
	cmd.Printf("  Type:          %s\n", s.Source.Type)
	cmd.Printf("  Folder:        %s\n", orDash(s.Source.FolderPath))
	cmd.Printf("  Upload folder: %s\n", s.Source.UploadFolder)
	cmd.Printf("  Recursive:     %t\n", s.Source.Recursive)
	if len(s.Source.Excludes) > 0 {
		cmd.Printf("  Excludes:      %s\n", strings.Join(s.Source.Excludes, ", "))
	}
	if s.Source.Type == domain.SourceOneDrive {
		cmd.Printf("  Client ID:     %s\n", orDash(s.Source.ClientID))
		cmd.Printf("  Tenant:        %s\n", s.Source.TenantID)
	} else {
		cmd.Printf("  Access token:  %s\n", maskAPIKey(s.Source.GoogleAccessToken))
	}

	cmd.Println(heading("Embedding"))
	cmd.Printf("  Provider:      %s\n", s.Embedding.Provider.Description())
	cmd.Printf("  Model:         %s\n", s.Embedding.Model)
	cmd.Printf("  Local model:   %s\n", s.Embedding.LocalModel)
	cmd.Printf("  Batch size:    %d\n", s.Embedding.BatchSize)

	cmd.Println(heading("LLM"))
	cmd.Printf("  Provider:      %s\n", s.LLM.Provider.Description())
	cmd.Printf("  Model:         %s\n", orDash(s.LLM.Model))
	cmd.Printf("  Temperature:   %.2f\n", s.LLM.Temperature)
	cmd.Printf("  Max tokens:    %d\n", s.LLM.MaxTokens)

	cmd.Println(heading("Credentials"))
	cmd.Printf("  Azure:         %s %s\n", maskAPIKey(s.Azure.APIKey), dim(orDash(s.Azure.Endpoint)))
	cmd.Printf("  OpenAI:        %s\n", maskAPIKey(s.Keys.OpenAI))
	cmd.Printf("  Anthropic:     %s\n", maskAPIKey(s.Keys.Anthropic))
	cmd.Printf("  Gemini:        %s\n", maskAPIKey(s.Keys.Gemini))
	cmd.Printf("  Ollama:        %s\n", s.OllamaBaseURL)

	cmd.Println(heading("Pipeline"))
	cmd.Printf("  Data dir:      %s\n", s.DataDir)
	cmd.Printf("  Chunking:      size=%d overlap=%d\n", s.Chunking.Size, s.Chunking.Overlap)
	cmd.Printf("  Top K:         %d\n", s.Retrieval.TopK)
	cmd.Printf("  Timeout:       %s\n", s.RequestTimeout)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	if err := svc.Set(args[0], args[1]); err != nil {
		return err
	}

	shown := args[1]
	if isSecretKey(args[0]) {
		shown = maskAPIKey(shown)
	}
	cmd.Printf("Set %s = %s\n", args[0], shown)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	if err := svc.Validate(); err != nil {
		cmd.Printf("%s %v\n", fail("Settings:"), err)
		return err
	}
	cmd.Printf("%s valid\n", ok("Settings:"))

	if services.Probe == nil {
		return nil
	}

	failed := 0
	for _, status := range services.Probe(cmd.Context()) {
		name := fmt.Sprintf("%s/%s", status.Kind, status.Provider)
		if status.Model != "" {
			name += " (" + status.Model + ")"
		}
		switch {
		case !status.OK():
			failed++
			cmd.Printf("  %s %s: %v\n", fail("FAIL"), name, status.Err)
		case status.Dimensions > 0:
			cmd.Printf("  %s %s dim=%d\n", ok("OK"), name, status.Dimensions)
		default:
			cmd.Printf("  %s %s\n", ok("OK"), name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d provider checks failed", failed)
	}
	return nil
}

// maskAPIKey shows only the last four characters of a secret.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") ||
		strings.HasSuffix(key, "client_secret") ||
		strings.HasSuffix(key, "access_token")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
