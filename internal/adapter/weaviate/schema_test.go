package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	adapter "aihub/aiservice/internal/adapter/weaviate"
	"aihub/aiservice/internal/vector"
)

func TestStore_EnsureSchema_CreatesChunkClass(t *testing.T) {
	var created models.Class
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/"+vector.ClassName:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/schema":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			writeJSON(w, created)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	require.NoError(t, adapter.NewStore(client, &fakeEmbedder{}).EnsureSchema(context.Background()))

	assert.Equal(t, vector.ClassName, created.Class)
	assert.Equal(t, "none", created.Vectorizer)
	assert.Len(t, created.Properties, len(vector.Properties()))
}

func TestStore_EnsureSchema_AddsMissingProperties(t *testing.T) {
	var added []string
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/"+vector.ClassName:
			writeJSON(w, &models.Class{
				Class:      vector.ClassName,
				Properties: []*models.Property{{Name: "content", DataType: []string{"text"}}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/schema/"+vector.ClassName+"/properties":
			var p models.Property
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			added = append(added, p.Name)
			writeJSON(w, p)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	require.NoError(t, adapter.NewStore(client, &fakeEmbedder{}).EnsureSchema(context.Background()))

	assert.Len(t, added, len(vector.Properties())-1)
	assert.NotContains(t, added, "content")
	assert.Contains(t, added, "documentId")
}

func TestStore_EnsureSchema_Unavailable(t *testing.T) {
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Error(t, adapter.NewStore(client, &fakeEmbedder{}).EnsureSchema(context.Background()))
}
