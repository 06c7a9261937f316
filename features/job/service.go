package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/ingest"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// RecordFailure stores a job whose ingestion ended in ERROR so it can be
// retried later.
func (s *Service) RecordFailure(ctx context.Context, j ingest.Job, reason string) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return err
	}
	fj := &FailedJob{FileID: j.FileID, Payload: payload, Error: reason}
	if err := s.repo.Save(ctx, fj); err != nil {
		return document.StoreError("job.record", err)
	}
	slog.InfoContext(ctx, "failed job recorded", "id", fj.ID, "file_id", j.FileID)
	return nil
}

func (s *Service) List(ctx context.Context, limit int) ([]FailedJob, error) {
	return s.repo.List(ctx, limit)
}

// Retry requeues the stored payload on the ingest topic and forgets the job.
func (s *Service) Retry(ctx context.Context, id string) error {
	fj, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return document.NotFoundError("job.retry", fmt.Sprintf("failed job %s not found", id))
	}
	if err != nil {
		return document.StoreError("job.retry", err)
	}

	if err := s.pub.Publish(config.TopicIngestTask, fj.Payload); err != nil {
		return fmt.Errorf("requeue job %s: %w", id, err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
