package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

type mockProvider struct {
	name  string
	dims  int
	err   error
	calls int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dims)
	}
	return out, nil
}

func (m *mockProvider) Dimensions() int   { return m.dims }
func (m *mockProvider) ModelName() string { return m.name + "-model" }
func (m *mockProvider) Close() error      { return nil }

func TestNew_NoProviders(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderFailure)
}

func TestEmbedBatch_FallsThroughAndSticks(t *testing.T) {
	azure := &mockProvider{name: "azure", err: errors.New("401")}
	openai := &mockProvider{name: "openai", dims: 1536}
	local := &mockProvider{name: "local", dims: 384}

	c, err := New(azure, openai, local)
	require.NoError(t, err)
	assert.Equal(t, "auto", c.Name())
	assert.Equal(t, 0, c.Dimensions())

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 1536)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, 1536, c.Dimensions())
	assert.Equal(t, "openai-model", c.ModelName())

	_, err = c.Embed(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, 1, azure.calls)
	assert.Equal(t, 2, openai.calls)
	assert.Equal(t, 0, local.calls)
}

func TestEmbedBatch_ActiveFailureIsFatal(t *testing.T) {
	openai := &mockProvider{name: "openai", dims: 2}
	local := &mockProvider{name: "local", dims: 2}

	c, err := New(openai, local)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "a")
	require.NoError(t, err)

	openai.err = errors.New("quota exceeded")
	_, err = c.Embed(context.Background(), "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderFailure)
	assert.Contains(t, err.Error(), "openai")
	assert.Equal(t, 0, local.calls)
}

func TestEmbedBatch_AllFail(t *testing.T) {
	c, err := New(
		&mockProvider{name: "azure", err: errors.New("no deployment")},
		&mockProvider{name: "local", err: errors.New("connection refused")},
	)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderFailure)
	assert.Contains(t, err.Error(), "no deployment")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, c.Active())
}

func TestEmbedBatch_PinnedNeverFallsBack(t *testing.T) {
	local := &mockProvider{name: "local", err: errors.New("down")}
	c, err := New(local)
	require.NoError(t, err)
	assert.Equal(t, "local", c.Name())

	_, err = c.Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderFailure)
	assert.Equal(t, 1, local.calls)
}

func TestEmbedBatch_ContextCancelled(t *testing.T) {
	azure := &mockProvider{name: "azure", err: context.Canceled}
	local := &mockProvider{name: "local", dims: 2}
	c, err := New(azure, local)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Embed(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, local.calls)
}

func TestEmbedBatch_Empty(t *testing.T) {
	p := &mockProvider{name: "local", dims: 2}
	c, err := New(p)
	require.NoError(t, err)

	vecs, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Equal(t, 0, p.calls)
}

func TestPrefer(t *testing.T) {
	azure := &mockProvider{name: "azure", dims: 1536}
	local := &mockProvider{name: "local", dims: 384}
	c, err := New(azure, local)
	require.NoError(t, err)

	require.NoError(t, c.Prefer("local"))
	assert.Equal(t, "local", c.Name())
	_, err = c.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 0, azure.calls)

	err = c.Prefer("gemini")
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderFailure)
	assert.Equal(t, []string{"azure", "local"}, c.Providers())
}
