// Package cli provides the cobra command tree for docpilot.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/docpilot/internal/adapters/driven/ai"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Authenticator runs the interactive source login.
type Authenticator interface {
	Login(ctx context.Context, prompt func(*oauth2.DeviceAuthResponse)) error
	Logout() error
}

// Services holds the driving ports the commands run against. Any field may
// be nil when its dependencies could not be built; the matching error
// field explains why.
type Services struct {
	Settings    driving.SettingsService
	Ingest      driving.IngestService
	Extraction  driving.ExtractionService
	Index       driving.IndexService
	Answer      driving.AnswerService
	Documents   driving.DocumentService
	Consolidate driving.ConsolidateService
	Maintenance driving.MaintenanceService

	// Auth builds the interactive login from the current settings, so a
	// client secret stored during login is picked up.
	Auth func() (Authenticator, error)

	// Probe checks provider connectivity for `config check`.
	Probe func(ctx context.Context) []ai.ProviderStatus

	// VectorStoreDir is watched by `serve` for index rebuilds.
	VectorStoreDir string

	// SourceErr is why the document source could not be built.
	SourceErr error

	// AIErr is why the embedding or LLM services could not be built.
	AIErr error

	// Close releases held resources. May be nil.
	Close func()
}

// Options carries the persistent flag values into a Bootstrap.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Bootstrap builds the services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	services  *Services
	bootstrap Bootstrap

	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "docpilot",
	Short: "Ask questions about your cloud documents",
	Long: `docpilot mirrors a OneDrive or Google Drive folder, extracts the text of
every document, embeds it into a local vector index, and answers questions
from that index with a language model.

Typical first run:
  docpilot auth login
  docpilot ingest
  docpilot ask "What is our refund policy?"`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if services != nil && services.Close != nil {
			services.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.docpilot)")
}

// setup loads .env, applies the verbose flag and builds the services.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	if cmd == versionCmd || services != nil || bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	services = svc
	return nil
}

// SetBootstrap registers the function that builds the services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs prebuilt services, skipping the bootstrap.
func SetServices(s *Services) {
	services = s
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands receive
// through cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// errNotConfigured reports a missing service, preferring the recorded cause.
func errNotConfigured(name string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%s not available: %w", name, cause)
	}
	return fmt.Errorf("%s not configured", name)
}

func settingsService() (driving.SettingsService, error) {
	if services == nil || services.Settings == nil {
		return nil, errNotConfigured("settings service", nil)
	}
	return services.Settings, nil
}

func ingestService() (driving.IngestService, error) {
	if services == nil || services.Ingest == nil {
		return nil, errNotConfigured("ingest service", sourceErr())
	}
	return services.Ingest, nil
}

func extractionService() (driving.ExtractionService, error) {
	if services == nil || services.Extraction == nil {
		return nil, errNotConfigured("extraction service", nil)
	}
	return services.Extraction, nil
}

func indexService() (driving.IndexService, error) {
	if services == nil || services.Index == nil {
		return nil, errNotConfigured("index service", aiErr())
	}
	return services.Index, nil
}

func answerService() (driving.AnswerService, error) {
	if services == nil || services.Answer == nil {
		return nil, errNotConfigured("answer service", aiErr())
	}
	return services.Answer, nil
}

func documentService() (driving.DocumentService, error) {
	if services == nil || services.Documents == nil {
		return nil, errNotConfigured("document service", nil)
	}
	return services.Documents, nil
}

func consolidateService() (driving.ConsolidateService, error) {
	if services == nil || services.Consolidate == nil {
		return nil, errNotConfigured("consolidate service", nil)
	}
	return services.Consolidate, nil
}

func maintenanceService() (driving.MaintenanceService, error) {
	if services == nil || services.Maintenance == nil {
		return nil, errNotConfigured("maintenance service", aiErr())
	}
	return services.Maintenance, nil
}

func authenticator() (Authenticator, error) {
	if services == nil || services.Auth == nil {
		return nil, errNotConfigured("interactive login", sourceErr())
	}
	return services.Auth()
}

func sourceErr() error {
	if services == nil {
		return nil
	}
	return services.SourceErr
}

func aiErr() error {
	if services == nil {
		return nil
	}
	return services.AIErr
}
