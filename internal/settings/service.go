package settings

import (
	"context"
	"fmt"
	"strings"
)

const maskPrefix = "****"

type Settings struct {
	ID             int    `json:"-"`
	RerankProvider string `json:"rerank_provider"`
	RerankAPIKey   string `json:"rerank_api_key"`
	GeminiAPIKey   string `json:"gemini_api_key"`
	RetrievalK     int    `json:"retrieval_k"`
	RerankTopN     int    `json:"rerank_top_n"`
}

var validProviders = map[string]bool{"": true, "none": true, "jina": true, "cohere": true}

// Validate checks the user-editable fields.
func (s *Settings) Validate() error {
	if !validProviders[s.RerankProvider] {
		return fmt.Errorf("unknown rerank provider %q", s.RerankProvider)
	}
	if s.RetrievalK < 0 || s.RerankTopN < 0 {
		return fmt.Errorf("retrieval_k and rerank_top_n must not be negative")
	}
	if s.RetrievalK > 0 && s.RerankTopN >= s.RetrievalK {
		return fmt.Errorf("rerank_top_n (%d) must be smaller than retrieval_k (%d)", s.RerankTopN, s.RetrievalK)
	}
	return nil
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, set *Settings) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	// Keys echoed back in their masked form keep their stored value.
	if isMasked(set.RerankAPIKey) || isMasked(set.GeminiAPIKey) {
		current, err := s.repo.Get(ctx)
		if err != nil {
			return err
		}
		if isMasked(set.RerankAPIKey) {
			set.RerankAPIKey = current.RerankAPIKey
		}
		if isMasked(set.GeminiAPIKey) {
			set.GeminiAPIKey = current.GeminiAPIKey
		}
	}
	return s.repo.Update(ctx, set)
}

func isMasked(key string) bool {
	return strings.HasPrefix(key, maskPrefix)
}
