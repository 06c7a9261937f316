package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"aihub/aiservice/internal/answer"
	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/middleware"
)

type Answerer interface {
	GetAnswer(ctx context.Context, userID, documentID, question string) (*answer.Result, error)
}

type Handler struct {
	svc Answerer
}

func NewHandler(svc Answerer) *Handler {
	return &Handler{svc: svc}
}

type Request struct {
	UserID     string `json:"user_id"`
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.DocumentID) == "" || strings.TrimSpace(req.Question) == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "user_id, document_id and question are required", http.StatusBadRequest)
		return
	}

	res, err := h.svc.GetAnswer(ctx, req.UserID, req.DocumentID, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "query failed", "error", err, "document_id", req.DocumentID)
		if errors.Is(err, document.ErrValidation) {
			h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		h.writeError(ctx, w, "INTERNAL_ERROR", fmt.Sprintf("Error querying document: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
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
