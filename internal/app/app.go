package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aihub/aiservice/features/ingest"
	"aihub/aiservice/features/inspect"
	"aihub/aiservice/features/job"
	"aihub/aiservice/features/query"
	"aihub/aiservice/features/stats"
	"aihub/aiservice/internal/adapter/reranker"
	"aihub/aiservice/internal/answer"
	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/document"
	pipeline "aihub/aiservice/internal/ingest"
	"aihub/aiservice/internal/loader"
	"aihub/aiservice/internal/middleware"
	"aihub/aiservice/internal/rerank"
	"aihub/aiservice/internal/settings"
	"aihub/aiservice/internal/text"
	"aihub/aiservice/internal/worker"
)

// VectorStore is the index contract shared by the Weaviate and memory backends.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, chunks []document.Chunk, ids []string) error
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]document.ScoredChunk, error)
	List(ctx context.Context, limit int) ([]document.Chunk, error)
	DeleteStale(ctx context.Context, fileID string, keep int) error
	CountChunks(ctx context.Context) (int, error)
}

// TaskPublisher is satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler        http.Handler
	Pipeline       *pipeline.Pipeline
	Answers        *answer.Service
	IngestConsumer *worker.IngestConsumer

	cfg     *config.Config
	closers []io.Closer
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	logger *slog.Logger,
) (*App, error) {
	a := &App{cfg: cfg}

	// Feature: Settings
	settingsService := settings.NewService(settings.NewPostgresRepo(db))
	seedGeminiKey(cfg, settingsService)
	settingsHandler := settings.NewHandler(settingsService)

	// Ingestion
	jobService := job.NewService(job.NewPostgresRepo(db), taskPub)
	jobHandler := job.NewHandler(jobService)
	a.Pipeline = NewPipeline(cfg, vecStore, pipeline.NewWebhookNotifier(cfg.WebhookTimeout)).
		WithFailureRecorder(jobService)
	a.IngestConsumer = worker.NewIngestConsumer(a.Pipeline)
	ingestHandler := ingest.NewHandler(taskPub, cfg.UploadDir)

	// Answering
	answers, closers, err := NewAnswerService(cfg, vecStore, settingsService)
	if err != nil {
		return nil, err
	}
	a.Answers = answers
	a.closers = append(a.closers, closers...)
	queryHandler := query.NewHandler(a.Answers)

	// Inspection
	inspectHandler := inspect.NewHandler(vecStore)
	statsHandler := stats.NewHandler(vecStore)

	// Routes
	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.CorrelationID(middleware.Metrics(name, enableCORS(h))))
	}

	route("POST /api/v1/process", "process", ingestHandler.Process)
	route("POST /api/v1/upload", "upload", ingestHandler.Upload)
	route("POST /api/v1/query", "query", queryHandler.Query)
	route("GET /api/v1/jobs/failed", "jobs", jobHandler.List)
	route("POST /api/v1/jobs/{id}/retry", "jobs", jobHandler.Retry)
	route("GET /api/v1/peek", "peek", inspectHandler.Peek)
	route("GET /api/v1/stats", "stats", statsHandler.GetStats)
	route("GET /api/v1/settings", "settings", settingsHandler.GetSettings)
	route("PUT /api/v1/settings", "settings", settingsHandler.UpdateSettings)
	route("OPTIONS /api/v1/", "preflight", func(w http.ResponseWriter, r *http.Request) {})

	mux.HandleFunc("GET /api/v1/health", health)
	mux.HandleFunc("GET /health", health)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.Handler = mux
	return a, nil
}

// NewPipeline assembles the ingestion pipeline from configuration.
func NewPipeline(cfg *config.Config, store pipeline.Store, notifier pipeline.Notifier) *pipeline.Pipeline {
	splitter := text.NewSplitter(text.WithChunkSize(cfg.ChunkSize), text.WithChunkOverlap(cfg.ChunkOverlap))
	src := loader.New(cfg.UploadDir, cfg.LoaderTimeout)
	return pipeline.NewPipeline(src, splitter, store, notifier)
}

// NewAnswerService assembles the answer pipeline: the configured language
// model, the settings-driven re-ranker and the query log.
func NewAnswerService(cfg *config.Config, store answer.Retriever, svc *settings.Service) (*answer.Service, []io.Closer, error) {
	generator, closer, err := NewGenerator(cfg, svc)
	if err != nil {
		return nil, nil, err
	}
	closers := []io.Closer{closer}

	scorer := reranker.NewDynamicClient(svc, cfg.RerankProvider, cfg.RerankAPIKey, cfg.RerankTimeout)

	queryLog, logCloser, err := answer.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLog = answer.NewQueryLogger(os.Stdout)
	} else {
		closers = append(closers, logCloser)
	}

	svcOpts := answer.Options{
		RetrievalK: cfg.RetrievalK,
		RerankTopN: cfg.RerankTopN,
		Settings:   svc,
		QueryLog:   queryLog,
	}
	return answer.NewService(store, rerank.New(scorer), generator, svcOpts), closers, nil
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.CorrelationHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// seedGeminiKey copies GEMINI_API_KEY into the settings row when none is stored.
func seedGeminiKey(cfg *config.Config, svc *settings.Service) {
	if cfg.GeminiAPIKey == "" {
		return
	}
	ctx := context.Background()
	set, err := svc.Get(ctx)
	if err != nil {
		slog.Warn("failed to fetch settings for seeding", "error", err)
		return
	}
	if set.GeminiAPIKey != "" {
		return
	}
	set.GeminiAPIKey = cfg.GeminiAPIKey
	if err := svc.Update(ctx, set); err != nil {
		slog.Warn("failed to seed gemini api key", "error", err)
		return
	}
	slog.Info("seeded gemini api key from environment")
}

// Run starts the ingest consumers and the HTTP server and blocks until ctx is
// done. Consumers stop before the server shuts down.
func (a *App) Run(ctx context.Context) error {
	var consumer *nsq.Consumer
	if a.cfg.EnableIngestWorker {
		c, err := a.startConsumer()
		if err != nil {
			return err
		}
		consumer = c
	}
	defer a.close()

	if !a.cfg.EnableAPI {
		<-ctx.Done()
		stopConsumer(consumer)
		return nil
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		stopConsumer(consumer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) startConsumer() (*nsq.Consumer, error) {
	concurrency := max(a.cfg.IngestConcurrency, 1)

	nsqCfg := nsq.NewConfig()
	nsqCfg.MaxInFlight = concurrency
	// Pipeline runs can be long; the message must not time out mid-run.
	nsqCfg.MsgTimeout = 10 * time.Minute

	consumer, err := nsq.NewConsumer(config.TopicIngestTask, config.ChannelIngestWorker, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.AddConcurrentHandlers(a.IngestConsumer, concurrency)

	if a.cfg.NSQLookupd != "" {
		err = consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd)
	} else {
		err = consumer.ConnectToNSQD(a.cfg.NSQDHost)
	}
	if err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("nsq connect error: %w", err)
	}
	slog.Info("ingest consumer connected", "topic", config.TopicIngestTask, "concurrency", concurrency)
	return consumer, nil
}

func stopConsumer(c *nsq.Consumer) {
	if c == nil {
		return
	}
	c.Stop()
	<-c.StopChan
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
}
