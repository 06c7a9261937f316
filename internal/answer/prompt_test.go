package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"aihub/aiservice/internal/document"
)

func TestBuildPrompt(t *testing.T) {
	chunks := []document.Chunk{
		{Content: "Paris is the capital.", Metadata: map[string]interface{}{"source": "geo.pdf", "page": 4}},
		{Content: "It has the Louvre.", Metadata: map[string]interface{}{}},
	}

	prompt := BuildPrompt("What is the capital?", chunks)

	assert.True(t, strings.HasPrefix(prompt, "You are a highly precise and factual assistant."))
	assert.Contains(t, prompt, NoAnswer)
	assert.Contains(t, prompt, "Source [1] (from: geo.pdf, page: 4):\nParis is the capital.\n\nSource [2] (from: Unknown Source, page: N/A):\nIt has the Louvre.")
	assert.Contains(t, prompt, "Question:\nWhat is the capital?")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
	assert.Less(t, strings.Index(prompt, "Source [1]"), strings.Index(prompt, "Question:"))
}
