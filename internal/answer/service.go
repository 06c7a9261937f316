package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/metrics"
	"aihub/aiservice/internal/middleware"
	"aihub/aiservice/internal/settings"
)

const (
	DefaultRetrievalK = 10
	DefaultRerankTopN = 3
)

var tracer = otel.Tracer("aiservice/answer")

type Retriever interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]document.ScoredChunk, error)
}

type Reranker interface {
	Rerank(ctx context.Context, question string, candidates []document.Chunk, topN int) ([]document.Chunk, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Source struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Options struct {
	RetrievalK int
	RerankTopN int
	Settings   SettingsProvider
	QueryLog   *QueryLogger
}

type Service struct {
	retriever Retriever
	reranker  Reranker
	generator Generator
	opts      Options
}

func NewService(r Retriever, rr Reranker, g Generator, opts Options) *Service {
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = DefaultRetrievalK
	}
	if opts.RerankTopN <= 0 {
		opts.RerankTopN = DefaultRerankTopN
	}
	return &Service{retriever: r, reranker: rr, generator: g, opts: opts}
}

// GetAnswer answers question from the chunks of one user's document.
func (s *Service) GetAnswer(ctx context.Context, userID, documentID, question string) (res *Result, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "answer.get", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("document_id", documentID),
	))
	defer func() {
		outcome := "answered"
		switch {
		case err != nil:
			outcome = "error"
			span.SetStatus(codes.Error, err.Error())
		case res != nil && res.Answer == NoAnswer && len(res.Sources) == 0:
			outcome = "no_candidates"
		}
		metrics.AnswerRequestsTotal.WithLabelValues(outcome).Inc()
		metrics.AnswerDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	k, topN := s.limits(ctx)

	retrieveCtx, rspan := tracer.Start(ctx, "answer.retrieve")
	found, err := s.retriever.Search(retrieveCtx, question, k, map[string]string{
		document.KeyUserID:     userID,
		document.KeyDocumentID: documentID,
	})
	rspan.End()
	if err != nil {
		slog.ErrorContext(ctx, "retrieval failed", "error", err)
		if _, typed := document.KindOf(err); !typed {
			err = document.StoreError("answer.retrieve", err)
		}
		return nil, err
	}

	if len(found) == 0 {
		slog.InfoContext(ctx, "no candidates found", "document_id", documentID)
		return &Result{Answer: NoAnswer, Sources: []Source{}}, nil
	}

	candidates := make([]document.Chunk, len(found))
	for i, f := range found {
		candidates[i] = f.Chunk
	}

	rerankCtx, rrspan := tracer.Start(ctx, "answer.rerank")
	top, err := s.reranker.Rerank(rerankCtx, question, candidates, topN)
	rrspan.End()
	if err != nil {
		slog.ErrorContext(ctx, "rerank failed", "error", err)
		return nil, err
	}

	genCtx, gspan := tracer.Start(ctx, "answer.generate")
	text, err := s.generator.Generate(genCtx, BuildPrompt(question, top))
	gspan.End()
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		if _, typed := document.KindOf(err); !typed {
			err = document.ModelError("answer.generate", err)
		}
		return nil, err
	}

	res = &Result{Answer: strings.TrimSpace(text), Sources: make([]Source, len(top))}
	for i, c := range top {
		res.Sources[i] = Source{PageContent: c.Content, Metadata: document.CloneMetadata(c.Metadata)}
	}

	if s.opts.QueryLog != nil {
		s.opts.QueryLog.Log(QueryLogEntry{
			UserID:        userID,
			DocumentID:    documentID,
			Question:      question,
			Candidates:    len(found),
			Sources:       len(top),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}
	return res, nil
}

// limits resolves retrieval_k and rerank_top_n; stored settings override the
// configured values when positive. topN never exceeds k.
func (s *Service) limits(ctx context.Context) (int, int) {
	k, topN := s.opts.RetrievalK, s.opts.RerankTopN
	if s.opts.Settings != nil {
		set, err := s.opts.Settings.Get(ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to load settings, using configured limits", "error", err)
		} else if set != nil {
			if set.RetrievalK > 0 {
				k = set.RetrievalK
			}
			if set.RerankTopN > 0 {
				topN = set.RerankTopN
			}
		}
	}
	// The re-ranked context must be smaller than the candidate set.
	if k > 1 && topN >= k {
		topN = k - 1
	}
	if k <= 1 {
		topN = 1
	}
	return k, topN
}
