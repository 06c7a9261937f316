package answer

import (
	"fmt"
	"strings"

	"aihub/aiservice/internal/document"
)

// NoAnswer is returned verbatim when the documents do not contain the answer.
const NoAnswer = "I cannot find the answer in the provided documents."

const instructions = `You are a highly precise and factual assistant. Answer the question using only the information in the sources below.
Do not use prior knowledge and do not guess.
If the sources do not contain the answer, reply exactly with: "` + NoAnswer + `"
Where it helps, mention which source numbers support your answer.`

// BuildPrompt renders the instruction block, the numbered sources and the question.
func BuildPrompt(question string, chunks []document.Chunk) string {
	sources := make([]string, len(chunks))
	for i, c := range chunks {
		source := document.StringValue(c.Metadata, document.KeySource)
		if source == "" {
			source = "Unknown Source"
		}
		page := document.StringValue(c.Metadata, document.KeyPage)
		if page == "" {
			page = "N/A"
		}
		sources[i] = fmt.Sprintf("Source [%d] (from: %s, page: %s):\n%s", i+1, source, page, c.Content)
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n---\n\n")
	b.WriteString(strings.Join(sources, "\n\n"))
	b.WriteString("\n\n---\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
