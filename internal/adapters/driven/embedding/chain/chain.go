// Package chain provides an embedding service that falls back across
// providers in priority order.
//
// The first provider to succeed becomes active and every later call goes
// to it alone, so one index never mixes vectors from different models.
// A failure of the active provider is fatal: fallback happens only until
// the first success, never per call. A pinned chain holds a single provider
// and never falls back.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure Chain implements the interface.
var _ driven.EmbeddingService = (*Chain)(nil)

// Chain tries providers in order until one succeeds.
type Chain struct {
	providers []driven.EmbeddingService

	mu     sync.RWMutex
	active driven.EmbeddingService
}

// New creates a chain over providers in priority order. A chain with a
// single provider behaves as pinned to it.
func New(providers ...driven.EmbeddingService) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingProviderFailure)
	}
	c := &Chain{providers: providers}
	if len(providers) == 1 {
		c.active = providers[0]
	}
	return c, nil
}

// Providers returns the provider names in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Prefer makes the named provider active. It is used at query time so
// questions are embedded by the provider that built the index.
func (c *Chain) Prefer(name string) error {
	for _, p := range c.providers {
		if p.Name() == name {
			c.mu.Lock()
			c.active = p
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingProviderFailure, name)
}

// Active returns the active provider, or nil before the first success.
func (c *Chain) Active() driven.EmbeddingService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Name returns the active provider name, or "auto" before one has
// been selected.
func (c *Chain) Name() string {
	if p := c.Active(); p != nil {
		return p.Name()
	}
	return string(domain.AIProviderAuto)
}

// Embed generates a vector embedding for the given text.
func (c *Chain) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds texts with the active provider, or selects one by
// falling through the chain.
func (c *Chain) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if p := c.Active(); p != nil {
		embeddings, err := p.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingProviderFailure, p.Name(), err)
		}
		return embeddings, nil
	}

	var errs []error
	for _, p := range c.providers {
		embeddings, err := p.EmbedBatch(ctx, texts)
		if err == nil {
			c.mu.Lock()
			if c.active == nil {
				c.active = p
			}
			c.mu.Unlock()
			logger.Info("Embedding provider: %s (%s)", p.Name(), p.ModelName())
			return embeddings, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Embedding provider %s failed, trying next: %v", p.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderFailure, errors.Join(errs...))
}

// Dimensions returns the active provider's dimensions, or 0 before one
// has been selected.
func (c *Chain) Dimensions() int {
	if p := c.Active(); p != nil {
		return p.Dimensions()
	}
	return 0
}

// ModelName returns the active provider's model.
func (c *Chain) ModelName() string {
	if p := c.Active(); p != nil {
		return p.ModelName()
	}
	return ""
}

// Close closes every provider.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
