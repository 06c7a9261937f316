package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/ingest"
	"aihub/aiservice/internal/middleware"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

const validBody = `{"file_id":"f1","user_id":"u1","document_id":"d1","source_type":"upload","source_location":"a.pdf","webhook_url":"http://hooks.local"}`

func TestHandler_Process(t *testing.T) {
	pub := new(MockPublisher)
	var published ingest.Job
	pub.On("Publish", config.TopicIngestTask, mock.Anything).Run(func(args mock.Arguments) {
		require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &published))
	}).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader(validBody))
	req = req.WithContext(middleware.WithCorrelationID(req.Context(), "corr-1"))
	w := httptest.NewRecorder()

	NewHandler(pub, t.TempDir()).Process(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, "Document processing started.", body["message"])
	assert.Equal(t, "f1", body["file_id"])

	assert.Equal(t, "f1", published.FileID)
	assert.Equal(t, "http://hooks.local", published.WebhookURL)
	assert.Equal(t, "corr-1", published.CorrelationID)
}

func TestHandler_Process_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing fields", `{"file_id":"f1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := new(MockPublisher)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			NewHandler(pub, t.TempDir()).Process(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
			pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Process_PublishFailure(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nsqd unreachable"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader(validBody))
	w := httptest.NewRecorder()

	NewHandler(pub, t.TempDir()).Process(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error processing document: nsqd unreachable")
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_Upload(t *testing.T) {
	dir := t.TempDir()
	w := httptest.NewRecorder()

	NewHandler(new(MockPublisher), dir).Upload(w, multipartUpload(t, "notes.txt", "hello"))

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data struct {
			SourceLocation string `json:"source_location"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, strings.HasSuffix(body.Data.SourceLocation, "_notes.txt"))

	data, err := os.ReadFile(filepath.Join(dir, body.Data.SourceLocation))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestHandler_Upload_UppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	w := httptest.NewRecorder()

	NewHandler(new(MockPublisher), dir).Upload(w, multipartUpload(t, "REPORT.TXT", "hello"))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "_REPORT.TXT")
}

func TestHandler_Upload_UnsupportedType(t *testing.T) {
	w := httptest.NewRecorder()

	NewHandler(new(MockPublisher), t.TempDir()).Upload(w, multipartUpload(t, "run.exe", "MZ"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unsupported file type: .exe")
}
