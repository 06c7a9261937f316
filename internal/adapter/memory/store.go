package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"aihub/aiservice/internal/document"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

type entry struct {
	chunk  document.Chunk
	vector []float32
	seq    int
}

// Store is an in-process vector index ranked by cosine similarity.
type Store struct {
	embedder Embedder

	mu      sync.RWMutex
	entries map[string]entry
	seq     int
}

func NewStore(embedder Embedder) *Store {
	return &Store{embedder: embedder, entries: make(map[string]entry)}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return nil
}

func (s *Store) Upsert(ctx context.Context, chunks []document.Chunk, ids []string) error {
	if len(chunks) != len(ids) {
		return document.ValidationError("memory.upsert", "The number of documents must match the number of IDs.")
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return document.ModelError("memory.upsert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		c.ID = ids[i]
		c.Metadata = document.CloneMetadata(c.Metadata)
		seq := s.seq
		if prev, ok := s.entries[ids[i]]; ok {
			seq = prev.seq
		} else {
			s.seq++
		}
		s.entries[ids[i]] = entry{chunk: c, vector: vectors[i], seq: seq}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, k int, filter map[string]string) ([]document.ScoredChunk, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, document.ModelError("memory.search", err)
	}

	s.mu.RLock()
	matches := make([]entry, 0, len(s.entries))
	scores := make(map[string]float64, len(s.entries))
	for id, e := range s.entries {
		if !matchesFilter(e.chunk.Metadata, filter) {
			continue
		}
		matches = append(matches, e)
		scores[id] = cosine(vec, e.vector)
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		si, sj := scores[matches[i].chunk.ID], scores[matches[j].chunk.ID]
		if si != sj {
			return si > sj
		}
		return matches[i].seq < matches[j].seq
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	results := make([]document.ScoredChunk, len(matches))
	for i, e := range matches {
		results[i] = document.ScoredChunk{Chunk: copyChunk(e.chunk), Score: scores[e.chunk.ID]}
	}
	return results, nil
}

// List returns chunks in insertion order.
func (s *Store) List(ctx context.Context, limit int) ([]document.Chunk, error) {
	s.mu.RLock()
	all := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	chunks := make([]document.Chunk, len(all))
	for i, e := range all {
		chunks[i] = copyChunk(e.chunk)
	}
	return chunks, nil
}

func (s *Store) DeleteStale(ctx context.Context, fileID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if document.StringValue(e.chunk.Metadata, document.KeyFileID) != fileID {
			continue
		}
		if n, ok := e.chunk.Metadata[document.KeyChunkNumber].(int); ok && n >= keep {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func matchesFilter(meta map[string]interface{}, filter map[string]string) bool {
	for k, v := range filter {
		if document.StringValue(meta, k) != v {
			return false
		}
	}
	return true
}

func copyChunk(c document.Chunk) document.Chunk {
	c.Metadata = document.CloneMetadata(c.Metadata)
	return c
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
