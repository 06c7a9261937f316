package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/httpclient"
	"aihub/aiservice/internal/middleware"
)

const DefaultWebhookTimeout = 10 * time.Second

// StatusUpdate is the webhook body.
type StatusUpdate struct {
	FileID       string  `json:"fileId"`
	Status       Status  `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
}

type Notifier interface {
	Notify(ctx context.Context, url string, update StatusUpdate) error
}

// WebhookNotifier delivers status updates with a single PATCH request.
type WebhookNotifier struct {
	client *http.Client
}

func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookNotifier{client: httpclient.NewPooledClient(timeout)}
}

func (n *WebhookNotifier) Notify(ctx context.Context, url string, update StatusUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return document.CallbackError("ingest.notify", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return document.CallbackError("ingest.notify", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := middleware.GetCorrelationID(ctx); id != "unknown" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return document.CallbackError("ingest.notify", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return document.CallbackError("ingest.notify", fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}
