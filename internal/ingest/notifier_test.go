package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/middleware"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	var got map[string]interface{}
	var method, contentType, correlation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		correlation = r.Header.Get(middleware.CorrelationHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := middleware.WithCorrelationID(context.Background(), "corr-1")
	err := NewWebhookNotifier(time.Second).Notify(ctx, srv.URL, StatusUpdate{FileID: "f1", Status: StatusReady})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "corr-1", correlation)
	assert.Equal(t, "f1", got["fileId"])
	assert.Equal(t, "READY", got["status"])
	assert.Contains(t, got, "errorMessage")
	assert.Nil(t, got["errorMessage"])
}

func TestWebhookNotifier_ErrorMessage(t *testing.T) {
	var got StatusUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(time.Second).Notify(context.Background(), srv.URL, failed("Unsupported file type: .exe"))

	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "Unsupported file type: .exe", *got.ErrorMessage)
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(time.Second).Notify(context.Background(), srv.URL, ready())

	assert.ErrorIs(t, err, document.ErrCallback)
}

func TestWebhookNotifier_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(20*time.Millisecond).Notify(context.Background(), srv.URL, ready())

	assert.ErrorIs(t, err, document.ErrCallback)
}
