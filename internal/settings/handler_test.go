package settings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"aihub/aiservice/internal/settings"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Get(ctx context.Context) (*settings.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, s *settings.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func TestHandler_GetSettings(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo))

		mockRepo.On("Get", mock.Anything).Return(&settings.Settings{
			RerankProvider: "cohere",
			RerankAPIKey:   "secret-key-1234",
			RetrievalK:     10,
			RerankTopN:     3,
		}, nil)

		req := httptest.NewRequest("GET", "/api/v1/settings", nil)
		w := httptest.NewRecorder()

		handler.GetSettings(w, req)

		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, "cohere", data["rerank_provider"])
		assert.Equal(t, "****1234", data["rerank_api_key"])
		assert.Equal(t, "", data["gemini_api_key"])
		assert.Equal(t, float64(10), data["retrieval_k"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("InternalError", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo))

		mockRepo.On("Get", mock.Anything).Return(nil, errors.New("db error"))

		req := httptest.NewRequest("GET", "/api/v1/settings", nil)
		w := httptest.NewRecorder()

		handler.GetSettings(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
	})
}

func TestHandler_UpdateSettings(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo))

		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(s *settings.Settings) bool {
			return s.RerankProvider == "jina" && s.RetrievalK == 12 && s.RerankTopN == 4
		})).Return(nil)

		body, _ := json.Marshal(&settings.Settings{RerankProvider: "jina", RetrievalK: 12, RerankTopN: 4})
		req := httptest.NewRequest("PUT", "/api/v1/settings", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Masked Keys Keep Stored Values", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo))

		mockRepo.On("Get", mock.Anything).Return(&settings.Settings{RerankAPIKey: "real-rerank", GeminiAPIKey: "real-gemini"}, nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(s *settings.Settings) bool {
			return s.RerankAPIKey == "real-rerank" && s.GeminiAPIKey == "new-gemini"
		})).Return(nil)

		body, _ := json.Marshal(&settings.Settings{RerankProvider: "cohere", RerankAPIKey: "****rank", GeminiAPIKey: "new-gemini"})
		req := httptest.NewRequest("PUT", "/api/v1/settings", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo))

		req := httptest.NewRequest("PUT", "/api/v1/settings", bytes.NewBufferString("invalid json"))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Rejects Unknown Provider", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo))

		body, _ := json.Marshal(&settings.Settings{RerankProvider: "acme"})
		req := httptest.NewRequest("PUT", "/api/v1/settings", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Rejects TopN Above K", func(t *testing.T) {
		err := (&settings.Settings{RetrievalK: 3, RerankTopN: 5}).Validate()
		assert.Error(t, err)
	})

	t.Run("Rejects TopN Equal To K", func(t *testing.T) {
		err := (&settings.Settings{RerankProvider: "none", RetrievalK: 3, RerankTopN: 3}).Validate()
		assert.ErrorContains(t, err, "must be smaller than retrieval_k")
	})
}
