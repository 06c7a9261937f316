package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aihub/aiservice/internal/httpclient"
)

const (
	ProviderNone   = "none"
	ProviderJina   = "jina"
	ProviderCohere = "cohere"

	jinaURL     = "https://api.jina.ai/v1/rerank"
	jinaModel   = "jina-reranker-v1-base-en"
	cohereURL   = "https://api.cohere.ai/v1/rerank"
	cohereModel = "rerank-english-v3.0"
)

// Client scores (query, document) pairs with a hosted cross-encoder.
type Client struct {
	apiKey   string
	provider string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   httpclient.NewPooledClient(10 * time.Second),
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) SetTimeout(d time.Duration) {
	c.client = httpclient.NewPooledClient(d)
}

// Score returns one relevance score per document, aligned with docs. The "none"
// provider scores everything equally so callers keep retrieval order.
func (c *Client) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return []float64{}, nil
	}
	switch c.provider {
	case ProviderJina:
		return c.post(ctx, "jina", c.endpoint(jinaURL), map[string]interface{}{
			"model":     jinaModel,
			"query":     query,
			"documents": docs,
			"top_n":     len(docs),
		}, len(docs))
	case ProviderCohere:
		return c.post(ctx, "cohere", c.endpoint(cohereURL), map[string]interface{}{
			"model":            cohereModel,
			"query":            query,
			"documents":        docs,
			"top_n":            len(docs),
			"return_documents": false,
		}, len(docs))
	default:
		return make([]float64, len(docs)), nil
	}
}

func (c *Client) endpoint(def string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return def
}

func (c *Client) post(ctx context.Context, name, url string, reqBody map[string]interface{}, n int) ([]float64, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s api error: %d %s", name, resp.StatusCode, bytes.TrimSpace(body))
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s api: decode response: %w", name, err)
	}

	scores := make([]float64, n)
	seen := make([]bool, n)
	for _, r := range result.Results {
		if r.Index < 0 || r.Index >= n {
			return nil, fmt.Errorf("%s api: result index %d out of range", name, r.Index)
		}
		scores[r.Index] = r.Score
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%s api: missing score for document %d", name, i)
		}
	}
	return scores, nil
}
