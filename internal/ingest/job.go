package ingest

import (
	"sort"
	"strings"

	"aihub/aiservice/internal/document"
)

// Job describes one document to ingest. It travels inside the ingest.task
// message and is never persisted.
type Job struct {
	FileID         string `json:"file_id"`
	UserID         string `json:"user_id"`
	DocumentID     string `json:"document_id"`
	SourceType     string `json:"source_type"`
	SourceLocation string `json:"source_location"`
	WebhookURL     string `json:"webhook_url,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

// Validate checks required fields. The source type is checked by the loader
// so that an unknown type is reported through the webhook.
func (j Job) Validate() error {
	missing := []string{}
	for name, v := range map[string]string{
		"file_id":         j.FileID,
		"user_id":         j.UserID,
		"document_id":     j.DocumentID,
		"source_type":     j.SourceType,
		"source_location": j.SourceLocation,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return document.ValidationError("ingest.validate", "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

type Status string

const (
	StatusReady Status = "READY"
	StatusError Status = "ERROR"
)

// Prepare tags chunks with the job's ownership keys and their position in
// the flattened sequence, and assigns ids. The input is not modified.
func Prepare(job Job, chunks []document.Chunk) ([]document.Chunk, []string) {
	out := make([]document.Chunk, len(chunks))
	ids := make([]string, len(chunks))
	for n, c := range chunks {
		ids[n] = document.ChunkID(job.FileID, n)
		out[n] = document.Chunk{
			ID:      ids[n],
			Content: c.Content,
			Metadata: document.MergeMetadata(c.Metadata, map[string]interface{}{
				document.KeyFileID:      job.FileID,
				document.KeyUserID:      job.UserID,
				document.KeyDocumentID:  job.DocumentID,
				document.KeyChunkNumber: n,
			}),
		}
	}
	return out, ids
}
