package embedding

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/LINGESHWARI22/AI-Quote-Generator/internal/domain/lookup"
)

// Cache persists vectors keyed by embedder model and text.
type Cache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Put(ctx context.Context, model, text string, vector []float32) error
}

// Cached wraps an embedder with a persistent cache so catalog vectors are
// computed once and reused across restarts.
type Cached struct {
	next  lookup.Embedder
	cache Cache
	log   zerolog.Logger
}

func NewCached(next lookup.Embedder, cache Cache, log zerolog.Logger) *Cached {
	return &Cached{next: next, cache: cache, log: log.With().Str("component", "embedding_cache").Logger()}
}

func (c *Cached) Model() string { return c.next.Model() }

// Embed consults the cache first. Cache errors are logged and fall through
// to the wrapped embedder.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	model := c.next.Model()
	if v, ok, err := c.cache.Get(ctx, model, text); err != nil {
		c.log.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		return v, nil
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, model, text, v); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}
	return v, nil
}
