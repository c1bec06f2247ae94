package onedrive

import (
	"context"
	"sync"
)

// mockTokens hands out tokens in order and counts invalidations.
type mockTokens struct {
	mu          sync.Mutex
	tokens      []string
	next        int
	invalidated int
	err         error
}

func newMockTokens(tokens ...string) *mockTokens {
	return &mockTokens{tokens: tokens}
}

func (m *mockTokens) GetToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	tok := m.tokens[m.next]
	if m.next < len(m.tokens)-1 {
		m.next++
	}
	return tok, nil
}

func (m *mockTokens) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
}

func (m *mockTokens) IsAuthenticated() bool {
	return true
}
