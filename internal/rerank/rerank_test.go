package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aihub/aiservice/internal/document"
)

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	args := m.Called(ctx, query, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func chunks(contents ...string) []document.Chunk {
	out := make([]document.Chunk, len(contents))
	for i, c := range contents {
		out[i] = document.Chunk{ID: c, Content: c}
	}
	return out
}

func ids(cs []document.Chunk) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestRerank_PicksHighestScore(t *testing.T) {
	scorer := new(MockScorer)
	scorer.On("Score", mock.Anything, "q", []string{"A", "B"}).Return([]float64{0.1, 0.9}, nil)

	out, err := New(scorer).Rerank(context.Background(), "q", chunks("A", "B"), 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(out))
	scorer.AssertExpectations(t)
}

func TestRerank_EmptyCandidates(t *testing.T) {
	scorer := new(MockScorer)

	out, err := New(scorer).Rerank(context.Background(), "q", nil, 3)

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestRerank_TopN(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		topN   int
		want   []string
	}{
		{"ties keep retrieval order", []float64{0.5, 0.5, 0.5}, 2, []string{"A", "B"}},
		{"descending", []float64{0.2, 0.7, 0.4}, 3, []string{"B", "C", "A"}},
		{"top n larger than candidates", []float64{0.2, 0.7, 0.4}, 10, []string{"B", "C", "A"}},
		{"zero keeps all", []float64{0.3, 0.1, 0.9}, 0, []string{"C", "A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := new(MockScorer)
			scorer.On("Score", mock.Anything, "q", mock.Anything).Return(tt.scores, nil)

			out, err := New(scorer).Rerank(context.Background(), "q", chunks("A", "B", "C"), tt.topN)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestRerank_ScorerFailure(t *testing.T) {
	scorer := new(MockScorer)
	scorer.On("Score", mock.Anything, "q", mock.Anything).Return(nil, errors.New("jina api error: 500"))

	_, err := New(scorer).Rerank(context.Background(), "q", chunks("A"), 1)

	assert.ErrorIs(t, err, document.ErrModel)
	assert.EqualError(t, err, "jina api error: 500")
}

func TestRerank_ScoreCountMismatch(t *testing.T) {
	scorer := new(MockScorer)
	scorer.On("Score", mock.Anything, "q", mock.Anything).Return([]float64{1}, nil)

	_, err := New(scorer).Rerank(context.Background(), "q", chunks("A", "B"), 1)

	assert.ErrorIs(t, err, document.ErrModel)
}
