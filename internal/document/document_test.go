package document_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"aihub/aiservice/internal/document"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "f1_chunk_0", document.ChunkID("f1", 0))
	assert.Equal(t, "abc_chunk_12", document.ChunkID("abc", 12))
}

func TestMergeMetadata(t *testing.T) {
	tests := []struct {
		name      string
		inherited map[string]interface{}
		pipeline  map[string]interface{}
		want      map[string]interface{}
	}{
		{
			name:      "pipeline keys added to provenance",
			inherited: map[string]interface{}{"source": "a.pdf", "page": 2},
			pipeline:  map[string]interface{}{"file_id": "f1", "chunk_number": 0},
			want:      map[string]interface{}{"source": "a.pdf", "page": 2, "file_id": "f1", "chunk_number": 0},
		},
		{
			name:      "reserved collision is namespaced",
			inherited: map[string]interface{}{"user_id": "spoofed", "source": "a.pdf"},
			pipeline:  map[string]interface{}{"user_id": "u1"},
			want:      map[string]interface{}{"user_id": "u1", "source_user_id": "spoofed", "source": "a.pdf"},
		},
		{
			name:      "explicit namespaced key is not overwritten",
			inherited: map[string]interface{}{"file_id": "x", "source_file_id": "orig"},
			pipeline:  map[string]interface{}{"file_id": "f1"},
			want:      map[string]interface{}{"file_id": "f1", "source_file_id": "orig", "source_source_file_id": "x"},
		},
		{
			name:      "inherited user id kept when namespaced name is taken",
			inherited: map[string]interface{}{"user_id": "loader-user", "source_user_id": "upstream", "source_source_user_id": "older"},
			pipeline:  map[string]interface{}{"user_id": "u1"},
			want: map[string]interface{}{
				"user_id":                      "u1",
				"source_user_id":               "upstream",
				"source_source_user_id":        "older",
				"source_source_source_user_id": "loader-user",
			},
		},
		{
			name:     "nil inherited",
			pipeline: map[string]interface{}{"document_id": "d1"},
			want:     map[string]interface{}{"document_id": "d1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := document.MergeMetadata(tt.inherited, tt.pipeline)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeMetadata_DoesNotMutateInputs(t *testing.T) {
	inherited := map[string]interface{}{"user_id": "x", "page": 1}
	pipeline := map[string]interface{}{"user_id": "u1"}

	_ = document.MergeMetadata(inherited, pipeline)

	assert.Equal(t, map[string]interface{}{"user_id": "x", "page": 1}, inherited)
	assert.Equal(t, map[string]interface{}{"user_id": "u1"}, pipeline)
}

func TestStringValue(t *testing.T) {
	m := map[string]interface{}{"s": " a ", "f": 3.0, "g": 1.5, "i": 7, "n": nil}
	assert.Equal(t, "a", document.StringValue(m, "s"))
	assert.Equal(t, "3", document.StringValue(m, "f"))
	assert.Equal(t, "1.5", document.StringValue(m, "g"))
	assert.Equal(t, "7", document.StringValue(m, "i"))
	assert.Equal(t, "", document.StringValue(m, "n"))
	assert.Equal(t, "", document.StringValue(m, "missing"))
}

func TestError_Taxonomy(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("Is matches kind sentinel through wrapping", func(t *testing.T) {
		err := fmt.Errorf("upsert: %w", document.StoreError("weaviate.upsert", cause))
		assert.ErrorIs(t, err, document.ErrStore)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, document.ErrModel)
	})

	t.Run("message is the cause", func(t *testing.T) {
		err := document.LoadError("loader.url", cause)
		assert.Equal(t, "connection refused", err.Error())
	})

	t.Run("explicit message", func(t *testing.T) {
		err := document.NotFoundError("loader.upload", "The file x.pdf does not exist.")
		assert.Equal(t, "The file x.pdf does not exist.", err.Error())
		kind, ok := document.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, document.KindNotFound, kind)
	})

	t.Run("existing classification survives", func(t *testing.T) {
		inner := document.ModelError("embed", cause)
		err := document.StoreError("upsert", inner)
		assert.ErrorIs(t, err, document.ErrModel)
		assert.NotErrorIs(t, err, document.ErrStore)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, document.StoreError("op", nil))
	})
}
