package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aihub/aiservice/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 10, cfg.RetrievalK)
	assert.Equal(t, 3, cfg.RerankTopN)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	err := os.WriteFile(".env", []byte("DB_HOST=loaded-from-file"), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RERANK_PROVIDER", "cohere")
	t.Setenv("RERANK_API_KEY", "test-key")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")
	t.Setenv("ENABLE_INGEST_WORKER", "false")
	t.Setenv("INGEST_CONCURRENCY", "8")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "cohere", cfg.RerankProvider)
	assert.Equal(t, "test-key", cfg.RerankAPIKey)
	assert.Equal(t, 3*time.Second, cfg.WebhookTimeout)
	assert.False(t, cfg.EnableIngestWorker)
	assert.Equal(t, 8, cfg.IngestConcurrency)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("CHUNK_OVERLAP", "1500")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}
