package text

import (
	"strings"
	"unicode/utf8"

	"aihub/aiservice/internal/document"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators in order of preference: paragraph, line, word, then a hard character cut.
var separators = []string{"\n\n", "\n", " ", ""}

type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

type Option func(*Splitter)

func WithChunkSize(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func WithChunkOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.chunkOverlap = n
		}
	}
}

func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{chunkSize: DefaultChunkSize, chunkOverlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 2
	}
	return s
}

func (s *Splitter) ChunkSize() int    { return s.chunkSize }
func (s *Splitter) ChunkOverlap() int { return s.chunkOverlap }

// Split turns segments into overlapping chunks. Each chunk carries a copy of its
// segment's metadata; ids and chunk numbers are left to the caller.
func (s *Splitter) Split(segments []document.Segment) []document.Chunk {
	chunks := make([]document.Chunk, 0, len(segments))
	for _, seg := range segments {
		for _, piece := range s.SplitText(seg.Text) {
			chunks = append(chunks, document.Chunk{
				Content:  piece,
				Metadata: document.CloneMetadata(seg.Metadata),
			})
		}
	}
	return chunks
}

// SplitText splits a single text into windows of at most chunkSize characters.
func (s *Splitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = splitRunes(text)
	} else {
		parts = strings.Split(text, sep)
	}

	var out []string
	var fitting []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if runeLen(p) <= s.chunkSize {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting, sep)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, s.split(p, rest)...)
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting, sep)...)
	}
	return out
}

// merge packs parts greedily into windows. When a window is emitted, leading parts
// are dropped until what remains fits within the overlap, and the next window starts
// from those.
func (s *Splitter) merge(parts []string, sep string) []string {
	sepLen := runeLen(sep)
	var docs []string
	var current []string
	total := 0

	for _, p := range parts {
		l := runeLen(p)
		joinLen := 0
		if len(current) > 0 {
			joinLen = sepLen
		}
		if total+l+joinLen > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > s.chunkOverlap || total+l+sepLen > s.chunkSize) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += l
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitRunes(text string) []string {
	out := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
