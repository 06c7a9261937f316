package job

import (
	"encoding/json"
	"time"
)

// FailedJob is an ingestion job whose run ended in ERROR. Payload is the
// original ingest.task message body.
type FailedJob struct {
	ID        string          `json:"id"`
	FileID    string          `json:"file_id"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}
