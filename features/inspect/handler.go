package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/middleware"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type ChunkLister interface {
	List(ctx context.Context, limit int) ([]document.Chunk, error)
}

type Handler struct {
	store ChunkLister
}

func NewHandler(store ChunkLister) *Handler {
	return &Handler{store: store}
}

// Peek lists stored chunks for debugging.
func (h *Handler) Peek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			h.writeError(ctx, w, "VALIDATION_ERROR", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxLimit)
	}

	chunks, err := h.store.List(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if chunks == nil {
		chunks = []document.Chunk{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": chunks}); err != nil {
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
