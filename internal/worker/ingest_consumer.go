package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"aihub/aiservice/internal/ingest"
	"aihub/aiservice/internal/middleware"
)

type Executor interface {
	Execute(ctx context.Context, job ingest.Job)
}

// IngestConsumer runs the ingestion pipeline for each ingest.task message.
// Outcomes are reported through the job's webhook, so messages are always
// finished and never requeued.
type IngestConsumer struct {
	pipeline Executor
}

func NewIngestConsumer(p Executor) *IngestConsumer {
	return &IngestConsumer{pipeline: p}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var job ingest.Job
	if err := json.Unmarshal(m.Body, &job); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if job.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, job.CorrelationID)
	}

	slog.InfoContext(ctx, "ingest task received", "file_id", job.FileID, "source_type", job.SourceType, "attempts", m.Attempts)
	h.pipeline.Execute(ctx, job)
	return nil
}
