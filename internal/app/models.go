package app

import (
	"fmt"
	"io"

	"aihub/aiservice/internal/adapter/embedcache"
	"aihub/aiservice/internal/adapter/gemini"
	"aihub/aiservice/internal/adapter/openai"
	"aihub/aiservice/internal/answer"
	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/settings"
	"aihub/aiservice/internal/vector"
)

// NewEmbedder builds the embedding chain: Gemini behind an LRU cache, fanned
// out with bounded concurrency and a rate limit.
func NewEmbedder(cfg *config.Config, svc *settings.Service) (*vector.BatchEmbedder, io.Closer, error) {
	base := gemini.NewEmbedder(svc, cfg.GeminiAPIKey, cfg.EmbeddingModel)

	var e vector.Embedder = base
	if cfg.EmbedCacheSize > 0 {
		cached, err := embedcache.New(base, cfg.EmbedCacheSize)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding cache: %w", err)
		}
		e = cached
	}
	return vector.NewBatchEmbedder(e, cfg.EmbedConcurrency, cfg.EmbedRatePerSec), base, nil
}

// NewGenerator selects the language model by LLM_PROVIDER.
func NewGenerator(cfg *config.Config, svc *settings.Service) (answer.Generator, io.Closer, error) {
	switch cfg.LLMProvider {
	case "", "gemini":
		g := gemini.NewGenerator(svc, cfg.GeminiAPIKey, cfg.LLMModel)
		return g, g, nil
	case "openai":
		g, err := openai.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return g, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: LLM_PROVIDER=%s", config.ErrInvalidValue, cfg.LLMProvider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
