package embedcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"aihub/aiservice/internal/metrics"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Cached memoizes embeddings by exact text. Returned slices are shared, callers
// must not modify them.
type Cached struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

func New(next Embedder, size int) (*Cached, error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedding cache size must be positive, got %d", size)
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: c}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		metrics.EmbedCacheLookups.WithLabelValues("hit").Inc()
		return v, nil
	}
	metrics.EmbedCacheLookups.WithLabelValues("miss").Inc()

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, v)
	return v, nil
}

func (c *Cached) Len() int {
	return c.cache.Len()
}
