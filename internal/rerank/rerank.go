package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/metrics"
)

// Scorer assigns one relevance score per document for a query.
type Scorer interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

type Reranker struct {
	scorer Scorer
}

func New(scorer Scorer) *Reranker {
	return &Reranker{scorer: scorer}
}

// Rerank orders candidates by descending score and keeps the first topN.
// Equal scores keep retrieval order. topN <= 0 keeps every candidate.
func (r *Reranker) Rerank(ctx context.Context, question string, candidates []document.Chunk, topN int) ([]document.Chunk, error) {
	if len(candidates) == 0 {
		return []document.Chunk{}, nil
	}
	metrics.RerankCandidates.Observe(float64(len(candidates)))

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}

	scores, err := r.scorer.Score(ctx, question, docs)
	if err != nil {
		return nil, document.ModelError("rerank", err)
	}
	if len(scores) != len(candidates) {
		return nil, document.ModelError("rerank", fmt.Errorf("scorer returned %d scores for %d documents", len(scores), len(candidates)))
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topN <= 0 || topN > len(order) {
		topN = len(order)
	}
	out := make([]document.Chunk, topN)
	for i := 0; i < topN; i++ {
		out[i] = candidates[order[i]]
	}

	slog.DebugContext(ctx, "reranked candidates", "candidates", len(candidates), "kept", topN)
	return out, nil
}
