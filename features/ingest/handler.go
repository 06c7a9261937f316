package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/ingest"
	"aihub/aiservice/internal/middleware"
)

const maxUploadBytes = 50 << 20

var uploadExts = map[string]bool{".pdf": true, ".txt": true, ".md": true}

// Publisher is satisfied by *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
}

type Handler struct {
	publisher Publisher
	uploadDir string
}

func NewHandler(p Publisher, uploadDir string) *Handler {
	return &Handler{publisher: p, uploadDir: uploadDir}
}

// Process queues an ingestion job and answers immediately.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var job ingest.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if err := job.Validate(); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	job.CorrelationID = middleware.GetCorrelationID(ctx)

	body, err := json.Marshal(job)
	if err != nil {
		h.writeError(ctx, w, "INTERNAL_ERROR", fmt.Sprintf("Error processing document: %v", err), http.StatusInternalServerError)
		return
	}
	if err := h.publisher.Publish(config.TopicIngestTask, body); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest task", "error", err, "file_id", job.FileID)
		h.writeError(ctx, w, "INTERNAL_ERROR", fmt.Sprintf("Error processing document: %v", err), http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "ingest task queued", "file_id", job.FileID, "source_type", job.SourceType)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	resp := map[string]interface{}{
		"status":  "accepted",
		"message": "Document processing started.",
		"file_id": job.FileID,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// Upload stores a multipart file under the upload directory and returns the
// location to pass as source_location for an upload job.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Unable to retrieve file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExts[ext] {
		h.writeError(ctx, w, "UNSUPPORTED_TYPE", fmt.Sprintf("Unsupported file type: %s", ext), http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		slog.ErrorContext(ctx, "failed to create upload directory", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to create upload directory", http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(header.Filename))
	path := filepath.Join(h.uploadDir, name)
	dst, err := os.Create(path) // #nosec G304 -- name is a UUID plus the base name
	if err != nil {
		slog.ErrorContext(ctx, "failed to create file", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to save file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(path)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to write file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	resp := map[string]interface{}{"data": map[string]string{"source_location": name}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
