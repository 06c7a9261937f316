package vector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds many texts with bounded parallelism and an optional rate
// limit. Results keep input order.
type BatchEmbedder struct {
	embedder    Embedder
	concurrency int
	limiter     *rate.Limiter
}

// NewBatchEmbedder builds a BatchEmbedder. ratePerSec <= 0 disables limiting.
func NewBatchEmbedder(e Embedder, concurrency int, ratePerSec float64) *BatchEmbedder {
	if concurrency <= 0 {
		concurrency = 1
	}
	b := &BatchEmbedder{embedder: e, concurrency: concurrency}
	if ratePerSec > 0 {
		burst := int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return b
}

// Embed is the single-text path used for queries.
func (b *BatchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return b.embedder.Embed(ctx, text)
}

func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := b.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
