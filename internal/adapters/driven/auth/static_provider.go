package auth

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
)

// Ensure StaticProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*StaticProvider)(nil)

// StaticProvider serves a fixed bearer token, such as GOOGLE_ACCESS_TOKEN.
// A static token cannot be refreshed, so Invalidate has no effect.
type StaticProvider struct {
	token string
	name  string
}

// NewStaticProvider creates a provider for a fixed token. name appears in
// the error returned when the token is empty.
func NewStaticProvider(name, token string) *StaticProvider {
	return &StaticProvider{token: token, name: name}
}

// GetToken returns the token.
func (p *StaticProvider) GetToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("%w: %s is not set", domain.ErrAuthRequired, p.name)
	}
	return p.token, nil
}

// Invalidate is a no-op.
func (p *StaticProvider) Invalidate() {}

// IsAuthenticated returns true if a token is set.
func (p *StaticProvider) IsAuthenticated() bool {
	return p.token != ""
}
