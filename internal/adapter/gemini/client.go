package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"aihub/aiservice/internal/settings"
)

// SettingsProvider supplies the runtime settings holding the API key.
type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// clientCache keeps one genai client per API key and swaps it when the key changes.
type clientCache struct {
	settings   SettingsProvider
	fallback   string
	clientOpts []option.ClientOption

	mu         sync.RWMutex
	client     *genai.Client
	currentKey string
}

func (c *clientCache) resolveKey(ctx context.Context) (string, error) {
	if c.settings == nil {
		if c.fallback == "" {
			return "", fmt.Errorf("gemini api key not configured")
		}
		return c.fallback, nil
	}
	s, err := c.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}
	key := s.GeminiAPIKey
	if key == "" {
		key = c.fallback
	}
	if key == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}
	return key, nil
}

func (c *clientCache) get(ctx context.Context) (*genai.Client, error) {
	key, err := c.resolveKey(ctx)
	if err != nil {
		return nil, err
	}
	return c.getClient(ctx, key)
}

func (c *clientCache) getClient(ctx context.Context, key string) (*genai.Client, error) {
	c.mu.RLock()
	if c.client != nil && c.currentKey == key {
		defer c.mu.RUnlock()
		return c.client, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.currentKey == key {
		return c.client, nil
	}

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			slog.Warn("failed to close previous genai client", "error", err)
		}
	}

	opts := append(append([]option.ClientOption{}, c.clientOpts...), option.WithAPIKey(key))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	c.client = client
	c.currentKey = key
	return client, nil
}

func (c *clientCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.currentKey = ""
	return err
}
