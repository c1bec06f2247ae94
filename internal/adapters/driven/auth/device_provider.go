package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure DeviceCodeProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*DeviceCodeProvider)(nil)

// GraphScopes are requested at login. offline_access yields a refresh token.
var GraphScopes = []string{
	"https://graph.microsoft.com/Files.ReadWrite.All",
	"offline_access",
}

// DefaultTenant accepts both work and personal Microsoft accounts.
const DefaultTenant = "common"

// DeviceCodeProvider supplies Microsoft Graph tokens obtained through the
// OAuth2 device authorization flow. Tokens are cached on disk and
// refreshed before they expire.
type DeviceCodeProvider struct {
	config *oauth2.Config
	cache  *TokenCache

	mu            sync.RWMutex
	token         *oauth2.Token
	forceRefresh  bool
	refreshBuffer time.Duration
}

// DeviceOption configures a DeviceCodeProvider.
type DeviceOption func(*DeviceCodeProvider)

// WithEndpoint overrides the identity platform endpoint.
func WithEndpoint(ep oauth2.Endpoint) DeviceOption {
	return func(p *DeviceCodeProvider) {
		p.config.Endpoint = ep
	}
}

// WithRefreshBuffer sets how long before expiry a token is refreshed.
func WithRefreshBuffer(d time.Duration) DeviceOption {
	return func(p *DeviceCodeProvider) {
		p.refreshBuffer = d
	}
}

// MicrosoftEndpoint returns the v2.0 endpoints for a tenant.
func MicrosoftEndpoint(tenant string) oauth2.Endpoint {
	if tenant == "" {
		tenant = DefaultTenant
	}
	ep := microsoft.AzureADEndpoint(tenant)
	ep.DeviceAuthURL = "https://login.microsoftonline.com/" + tenant + "/oauth2/v2.0/devicecode"
	return ep
}

// NewDeviceCodeProvider creates a provider for a public client application.
// clientSecret is optional and only sent by confidential clients.
func NewDeviceCodeProvider(
	clientID, clientSecret, tenant string, cache *TokenCache, opts ...DeviceOption,
) *DeviceCodeProvider {
	p := &DeviceCodeProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     MicrosoftEndpoint(tenant),
			Scopes:       GraphScopes,
		},
		cache:         cache,
		refreshBuffer: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Login runs the device authorization flow. prompt receives the user code
// and verification URL to show the user; Login then polls until the user
// completes sign-in, the code expires or ctx is cancelled.
func (p *DeviceCodeProvider) Login(ctx context.Context, prompt func(*oauth2.DeviceAuthResponse)) error {
	resp, err := p.config.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("request device code: %w", err)
	}
	prompt(resp)

	tok, err := p.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return fmt.Errorf("%w: device login: %w", domain.ErrAuthRequired, err)
	}

	if err := p.cache.Save(tok); err != nil {
		return err
	}

	p.mu.Lock()
	p.token = tok
	p.forceRefresh = false
	p.mu.Unlock()

	logger.Info("Token cached at %s", p.cache.Path())
	return nil
}

// Logout clears the cached token.
func (p *DeviceCodeProvider) Logout() error {
	p.mu.Lock()
	p.token = nil
	p.mu.Unlock()
	return p.cache.Clear()
}

// GetToken returns a valid access token, refreshing if necessary.
func (p *DeviceCodeProvider) GetToken(ctx context.Context) (string, error) {
	// Fast path: check cache with read lock
	p.mu.RLock()
	if p.usable() {
		token := p.token.AccessToken
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if p.usable() {
		return p.token.AccessToken, nil
	}

	if p.token == nil {
		tok, err := p.cache.Load()
		if err != nil {
			return "", err
		}
		p.token = tok
		if p.usable() {
			return p.token.AccessToken, nil
		}
	}

	if p.token.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token, run 'docpilot auth login'", domain.ErrAuthExpired)
	}

	// An expired copy makes the token source refresh unconditionally.
	stale := *p.token
	stale.Expiry = time.Now().Add(-time.Minute)

	fresh, err := p.config.TokenSource(ctx, &stale).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return "", fmt.Errorf("%w: refresh rejected: %s", domain.ErrAuthExpired, rerr.ErrorCode)
		}
		return "", fmt.Errorf("%w: refresh token: %w", domain.ErrAuthExpired, err)
	}

	if err := p.cache.Save(fresh); err != nil {
		logger.Warn("Could not persist refreshed token: %v", err)
	}
	p.token = fresh
	p.forceRefresh = false
	logger.Debug("auth: refreshed Microsoft token, expires %s", fresh.Expiry.Format(time.RFC3339))

	return fresh.AccessToken, nil
}

// usable reports whether the held token can be returned as is.
// Callers must hold p.mu.
func (p *DeviceCodeProvider) usable() bool {
	if p.token == nil || p.token.AccessToken == "" || p.forceRefresh {
		return false
	}
	if p.token.Expiry.IsZero() {
		return true
	}
	return time.Until(p.token.Expiry) > p.refreshBuffer
}

// Invalidate forces a refresh on the next GetToken.
func (p *DeviceCodeProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forceRefresh = true
}

// IsAuthenticated returns true if a cached or held token exists.
func (p *DeviceCodeProvider) IsAuthenticated() bool {
	p.mu.RLock()
	held := p.token != nil
	p.mu.RUnlock()
	if held {
		return true
	}

	_, err := p.cache.Load()
	return err == nil
}
