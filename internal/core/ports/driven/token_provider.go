package driven

import "context"

// TokenProvider provides bearer credentials for authenticated API calls.
// Implementations refresh transparently and cache the result.
//
// Sources call Invalidate after a 401 and then request a fresh token
// for a single retry.
type TokenProvider interface {
	// GetToken returns a valid access token.
	GetToken(ctx context.Context) (string, error)

	// Invalidate drops any cached token so the next GetToken refreshes.
	Invalidate()

	// IsAuthenticated returns true if a credential is available without
	// user interaction.
	IsAuthenticated() bool
}
