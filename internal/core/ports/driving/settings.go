package driving

import "github.com/custodia-labs/docpilot/internal/core/domain"

// SettingsService resolves and persists runtime settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and the
	// environment, in increasing precedence.
	Get() (domain.Settings, error)

	// Set stores a single dotted key in the config file.
	Set(key, value string) error

	// Keys returns every supported config key in sorted order.
	Keys() []string

	// Validate checks that the resolved settings can run the pipeline.
	Validate() error
}
