package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/logger"
	"aihub/aiservice/internal/metrics"
)

var tracer = otel.Tracer("aiservice/ingest")

type Loader interface {
	Load(ctx context.Context, sourceType, location string) ([]document.Segment, error)
}

type Splitter interface {
	Split(segments []document.Segment) []document.Chunk
}

type Store interface {
	Upsert(ctx context.Context, chunks []document.Chunk, ids []string) error
	DeleteStale(ctx context.Context, fileID string, keep int) error
}

// FailureRecorder keeps jobs that ended in ERROR for a later retry.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, job Job, reason string) error
}

type Pipeline struct {
	loader   Loader
	splitter Splitter
	store    Store
	notifier Notifier
	failures FailureRecorder
}

func NewPipeline(l Loader, s Splitter, st Store, n Notifier) *Pipeline {
	return &Pipeline{loader: l, splitter: s, store: st, notifier: n}
}

func (p *Pipeline) WithFailureRecorder(r FailureRecorder) *Pipeline {
	p.failures = r
	return p
}

// Execute ingests one document. It never returns an error: the outcome is
// reported once through the job's webhook, when one is set.
func (p *Pipeline) Execute(ctx context.Context, job Job) {
	start := time.Now()
	ctx = logger.WithFileID(ctx, job.FileID)
	ctx, span := tracer.Start(ctx, "ingest.execute", trace.WithAttributes(
		attribute.String("file_id", job.FileID),
		attribute.String("source_type", job.SourceType),
	))

	update := StatusUpdate{FileID: job.FileID, Status: StatusReady}
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "ingestion panicked", "panic", r)
			update.Status = StatusError
			update.ErrorMessage = strPtr(fmt.Sprintf("%v", r))
		}
		if update.Status == StatusError {
			span.SetStatus(codes.Error, *update.ErrorMessage)
			p.recordFailure(ctx, job, *update.ErrorMessage)
		}
		metrics.IngestJobsTotal.WithLabelValues(string(update.Status)).Inc()
		metrics.IngestDuration.Observe(time.Since(start).Seconds())

		p.notify(ctx, job.WebhookURL, update)
		span.End()
	}()

	n, err := p.run(ctx, job)
	if err != nil {
		slog.ErrorContext(ctx, "ingestion failed", "error", err)
		update.Status = StatusError
		update.ErrorMessage = strPtr(err.Error())
		return
	}
	slog.InfoContext(ctx, "ingestion completed", "chunks", n, "duration", time.Since(start))
}

func (p *Pipeline) run(ctx context.Context, job Job) (int, error) {
	loadCtx, span := tracer.Start(ctx, "ingest.load")
	segments, err := p.loader.Load(loadCtx, job.SourceType, job.SourceLocation)
	span.End()
	if err != nil {
		return 0, err
	}
	if len(segments) == 0 {
		slog.InfoContext(ctx, "source produced no content")
		return 0, nil
	}

	_, span = tracer.Start(ctx, "ingest.split")
	chunks, ids := Prepare(job, p.splitter.Split(segments))
	span.SetAttributes(attribute.Int("chunks", len(chunks)))
	span.End()
	if len(chunks) == 0 {
		return 0, nil
	}

	upsertCtx, span := tracer.Start(ctx, "ingest.upsert")
	defer span.End()
	if err := p.store.Upsert(upsertCtx, chunks, ids); err != nil {
		return 0, err
	}
	metrics.IngestChunksTotal.Add(float64(len(chunks)))

	if err := p.store.DeleteStale(upsertCtx, job.FileID, len(chunks)); err != nil {
		slog.WarnContext(ctx, "failed to delete stale chunks", "error", err)
	}
	return len(chunks), nil
}

func (p *Pipeline) notify(ctx context.Context, url string, update StatusUpdate) {
	if url == "" || p.notifier == nil {
		return
	}
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "ingest.notify")
	defer span.End()

	if err := p.notifier.Notify(ctx, url, update); err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
		slog.ErrorContext(ctx, "webhook delivery failed", "url", url, "status", update.Status, "error", err)
		return
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
}

func (p *Pipeline) recordFailure(ctx context.Context, job Job, reason string) {
	if p.failures == nil {
		return
	}
	if err := p.failures.RecordFailure(context.WithoutCancel(ctx), job, reason); err != nil {
		slog.WarnContext(ctx, "failed to record failed job", "error", err)
	}
}

func strPtr(s string) *string { return &s }
