package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"aihub/aiservice/internal/adapter/memory"
	wstore "aihub/aiservice/internal/adapter/weaviate"
	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/httpclient"
	"aihub/aiservice/internal/settings"
	"aihub/aiservice/internal/vector"
)

type Dependencies struct {
	DB          *sql.DB
	Settings    *settings.Service
	VectorStore VectorStore
	NSQProducer *nsq.Producer

	closers []io.Closer
}

// Close releases model clients, the producer and the database.
func (d *Dependencies) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	if d.NSQProducer != nil {
		d.NSQProducer.Stop()
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// Database
	db, err := openDB(cfg, retryDelay)
	if err != nil {
		return nil, err
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.Info("migrations applied")

	deps := &Dependencies{DB: db, Settings: settings.NewService(settings.NewPostgresRepo(db))}

	// Vector index
	embedder, closer, err := NewEmbedder(cfg, deps.Settings)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.closers = append(deps.closers, closer)

	deps.VectorStore, err = NewVectorStore(ctx, cfg, embedder)
	if err != nil {
		deps.Close()
		return nil, err
	}

	// NSQ producer
	deps.NSQProducer, err = nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("nsq producer error: %w", err)
	}
	createTopics(cfg.NSQDHTTP)

	return deps, nil
}

func openDB(cfg *config.Config, retryDelay time.Duration) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			return db, nil
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return db, nil
}

// NewVectorStore builds the index selected by VECTOR_BACKEND.
func NewVectorStore(ctx context.Context, cfg *config.Config, embedder *vector.BatchEmbedder) (VectorStore, error) {
	switch cfg.VectorBackend {
	case "memory":
		slog.Warn("using in-memory vector index; chunks are lost on restart")
		return memory.NewStore(embedder), nil
	case "", "weaviate":
		client, err := weaviate.NewClient(weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme})
		if err != nil {
			return nil, fmt.Errorf("weaviate client error: %w", err)
		}
		store := wstore.NewStore(client, embedder)
		delay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
		if err := EnsureSchemaWithRetry(ctx, store, cfg.BootstrapRetryAttempts, delay); err != nil {
			return nil, fmt.Errorf("weaviate schema error: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: VECTOR_BACKEND=%s", config.ErrInvalidValue, cfg.VectorBackend)
	}
}

// createTopics pre-creates ingest.task so lookupd-connected consumers find it
// before the first publish.
func createTopics(nsqdHTTP string) {
	if nsqdHTTP == "" {
		return
	}
	client := httpclient.NewPooledClient(5 * time.Second)
	go func() {
		time.Sleep(2 * time.Second)
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, config.TopicIngestTask)
		resp, err := client.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", config.TopicIngestTask, "error", err)
			return
		}
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", err)
		}
		if resp.StatusCode != http.StatusOK {
			slog.Warn("unexpected NSQ topic creation status", "topic", config.TopicIngestTask, "status", resp.StatusCode)
		}
	}()
}

// EnsureSchemaWithRetry retries schema creation while Weaviate starts up.
func EnsureSchemaWithRetry(ctx context.Context, store VectorStore, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = store.EnsureSchema(ctx); err == nil {
			return nil
		}
		slog.Warn("failed to ensure weaviate schema, retrying...", "attempt", i+1, "error", err)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
