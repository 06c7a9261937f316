package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGenerativeModel = "gemini-1.5-flash"

// Generator answers prompts with a Gemini generative model.
type Generator struct {
	clients     *clientCache
	model       string
	temperature float32
}

func NewGenerator(svc SettingsProvider, fallbackKey, model string, opts ...option.ClientOption) *Generator {
	if model == "" {
		model = DefaultGenerativeModel
	}
	return &Generator{
		clients:     &clientCache{settings: svc, fallback: fallbackKey, clientOpts: opts},
		model:       model,
		temperature: 0,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.clients.get(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		// first candidate with content is the answer
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text")
	}
	return b.String(), nil
}

func (g *Generator) Close() error {
	return g.clients.Close()
}
