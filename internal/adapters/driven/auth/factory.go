package auth

import (
	"fmt"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// NewTokenProvider creates the TokenProvider for the configured source.
// configDir holds the OneDrive token cache.
func NewTokenProvider(src domain.SourceSettings, configDir string) (driven.TokenProvider, error) {
	switch src.Type {
	case domain.SourceOneDrive, "":
		if src.ClientID == "" {
			return nil, fmt.Errorf("%w: MICROSOFT_CLIENT_ID is not set", domain.ErrAuthRequired)
		}
		return NewDeviceCodeProvider(src.ClientID, src.ClientSecret, src.TenantID, NewTokenCache(configDir)), nil
	case domain.SourceGoogleDrive:
		return NewStaticProvider("GOOGLE_ACCESS_TOKEN", src.GoogleAccessToken), nil
	default:
		return nil, fmt.Errorf("%w: source %q", domain.ErrUnsupportedType, src.Type)
	}
}
