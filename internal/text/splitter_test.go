package text

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"aihub/aiservice/internal/document"
)

func TestSplitter_SplitText(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		input   string
		want    []string
	}{
		{
			name:  "Empty",
			size:  10,
			input: "",
			want:  nil,
		},
		{
			name:  "Whitespace Only",
			size:  10,
			input: " \n\n \n",
			want:  nil,
		},
		{
			name:  "Fits In One Chunk",
			size:  100,
			input: "A short paragraph.",
			want:  []string{"A short paragraph."},
		},
		{
			name:    "Prefers Paragraph Boundaries",
			size:    20,
			overlap: 0,
			input:   "aaaa bbbb\n\ncccc dddd\n\neeee",
			want:    []string{"aaaa bbbb\n\ncccc dddd", "eeee"},
		},
		{
			name:    "Word Windows Overlap",
			size:    10,
			overlap: 5,
			input:   "one two three four",
			want:    []string{"one two", "two three", "three four"},
		},
		{
			name:    "Hard Cut Without Separators",
			size:    4,
			overlap: 0,
			input:   "abcdefghij",
			want:    []string{"abcd", "efgh", "ij"},
		},
		{
			name:    "Long Token After Paragraph",
			size:    5,
			overlap: 0,
			input:   "short\n\nxxxxxxxxxxxx",
			want:    []string{"short", "xxxxx", "xxxxx", "xx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSplitter(WithChunkSize(tt.size), WithChunkOverlap(tt.overlap))
			assert.Equal(t, tt.want, s.SplitText(tt.input))
		})
	}
}

func TestSplitter_Defaults(t *testing.T) {
	s := NewSplitter()
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.ChunkOverlap())

	clamped := NewSplitter(WithChunkSize(10), WithChunkOverlap(10))
	assert.Less(t, clamped.ChunkOverlap(), clamped.ChunkSize())
}

func TestSplitter_MaxLengthAndDeterminism(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Paragraph number with several words that keep going for a while.\n")
		if i%5 == 4 {
			b.WriteString("\n")
		}
	}
	b.WriteString(strings.Repeat("ü", 300))
	input := b.String()

	s := NewSplitter(WithChunkSize(120), WithChunkOverlap(30))
	first := s.SplitText(input)
	second := s.SplitText(input)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	for _, c := range first {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
		assert.True(t, utf8.ValidString(c))
	}
}

func TestSplitter_Split(t *testing.T) {
	s := NewSplitter(WithChunkSize(10), WithChunkOverlap(0))

	t.Run("Empty Input", func(t *testing.T) {
		assert.Empty(t, s.Split(nil))
		assert.Empty(t, s.Split([]document.Segment{}))
	})

	t.Run("Keeps Segment Order And Metadata", func(t *testing.T) {
		segments := []document.Segment{
			{Text: "page one text here", Metadata: map[string]interface{}{"source": "a.pdf", "page": 1}},
			{Text: "   ", Metadata: map[string]interface{}{"source": "a.pdf", "page": 2}},
			{Text: "page three", Metadata: map[string]interface{}{"source": "a.pdf", "page": 3}},
		}

		chunks := s.Split(segments)

		assert.Len(t, chunks, 3)
		assert.Equal(t, "page one", chunks[0].Content)
		assert.Equal(t, "text here", chunks[1].Content)
		assert.Equal(t, "page three", chunks[2].Content)
		assert.Equal(t, 1, chunks[0].Metadata["page"])
		assert.Equal(t, 1, chunks[1].Metadata["page"])
		assert.Equal(t, 3, chunks[2].Metadata["page"])
		for _, c := range chunks {
			assert.Empty(t, c.ID)
			assert.NotContains(t, c.Metadata, document.KeyChunkNumber)
		}
	})

	t.Run("Metadata Is Copied Per Chunk", func(t *testing.T) {
		meta := map[string]interface{}{"source": "x"}
		chunks := s.Split([]document.Segment{{Text: "aaaa bbbb cccc", Metadata: meta}})
		assert.Len(t, chunks, 2)

		chunks[0].Metadata["source"] = "changed"
		assert.Equal(t, "x", chunks[1].Metadata["source"])
		assert.Equal(t, "x", meta["source"])
	})
}
