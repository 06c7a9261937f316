package reranker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aihub/aiservice/internal/settings"
)

type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// DynamicClient picks provider and key from the settings table on every call and
// rebuilds the underlying Client only when either changes. Empty settings fall
// back to the configured provider and key.
type DynamicClient struct {
	settingsSvc      SettingsProvider
	fallbackProvider string
	fallbackKey      string
	timeout          time.Duration

	mu       sync.RWMutex
	client   *Client
	provider string
	key      string
}

func NewDynamicClient(svc SettingsProvider, fallbackProvider, fallbackKey string, timeout time.Duration) *DynamicClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DynamicClient{
		settingsSvc:      svc,
		fallbackProvider: fallbackProvider,
		fallbackKey:      fallbackKey,
		timeout:          timeout,
	}
}

func (d *DynamicClient) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	provider, key := d.fallbackProvider, d.fallbackKey
	if d.settingsSvc != nil {
		s, err := d.settingsSvc.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		if s.RerankProvider != "" {
			provider = s.RerankProvider
			key = s.RerankAPIKey
		}
		if key == "" && provider == d.fallbackProvider {
			key = d.fallbackKey
		}
	}
	if provider == "" {
		provider = ProviderNone
	}
	if provider != ProviderNone && key == "" {
		return nil, fmt.Errorf("%s rerank api key not configured", provider)
	}
	return d.getClient(provider, key).Score(ctx, query, docs)
}

func (d *DynamicClient) getClient(provider, key string) *Client {
	d.mu.RLock()
	if d.client != nil && d.provider == provider && d.key == key {
		defer d.mu.RUnlock()
		return d.client
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil && d.provider == provider && d.key == key {
		return d.client
	}

	c := NewClient(provider, key)
	c.SetTimeout(d.timeout)
	d.client = c
	d.provider = provider
	d.key = key
	return c
}
