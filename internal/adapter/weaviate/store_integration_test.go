package weaviate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aihub/aiservice/internal/adapter/weaviate"
	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/testutils"
)

func TestWeaviateStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := weaviate.NewStore(s.Weaviate, &fakeEmbedder{})
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))
	// idempotent
	require.NoError(t, store.EnsureSchema(ctx))

	chunks := make([]document.Chunk, 3)
	ids := make([]string, 3)
	for i, text := range []string{"Postgres is a database", "Weaviate stores vectors", "NSQ moves messages"} {
		ids[i] = document.ChunkID("f1", i)
		chunks[i] = document.Chunk{Content: text, Metadata: map[string]interface{}{
			document.KeyFileID:      "f1",
			document.KeyUserID:      "u1",
			document.KeyChunkNumber: i,
			document.KeySource:      "notes.txt",
		}}
	}
	require.NoError(t, store.Upsert(ctx, chunks, ids))

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Same ids overwrite in place.
	require.NoError(t, store.Upsert(ctx, chunks, ids))
	count, err = store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	res, err := store.Search(ctx, "Postgres is a database", 2, map[string]string{document.KeyUserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.LessOrEqual(t, len(res), 2)
	assert.Equal(t, "u1", res[0].Metadata[document.KeyUserID])

	res, err = store.Search(ctx, "Postgres", 5, map[string]string{document.KeyUserID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, store.DeleteStale(ctx, "f1", 1))
	count, err = store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	listed, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, document.ChunkID("f1", 0), listed[0].ID)
}
