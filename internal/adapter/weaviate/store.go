package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/vector"
)

// chunkNamespace seeds the deterministic object UUIDs derived from chunk ids.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("aiservice/document-chunk"))

// filterPaths maps metadata keys accepted in search filters to class properties.
var filterPaths = map[string]string{
	document.KeyFileID:     "fileId",
	document.KeyUserID:     "userId",
	document.KeyDocumentID: "documentId",
	document.KeySource:     "source",
}

type BatchEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

type Store struct {
	client   *weaviate.Client
	embedder BatchEmbedder
}

func NewStore(client *weaviate.Client, embedder BatchEmbedder) *Store {
	return &Store{client: client, embedder: embedder}
}

// ObjectID is the Weaviate object id for a chunk id. Re-ingesting a chunk id
// overwrites the same object.
func ObjectID(chunkID string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, schemaAPI{client: s.client})
}

// Upsert embeds and writes chunks in one batch, keyed by ids.
func (s *Store) Upsert(ctx context.Context, chunks []document.Chunk, ids []string) error {
	if len(chunks) != len(ids) {
		return document.ValidationError("weaviate.upsert", "The number of documents must match the number of IDs.")
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return document.ModelError("weaviate.upsert", err)
	}

	objects := make([]*models.Object, len(chunks))
	for i, c := range chunks {
		props, err := properties(ids[i], c)
		if err != nil {
			return document.StoreError("weaviate.upsert", err)
		}
		objects[i] = &models.Object{
			Class:      vector.ClassName,
			ID:         strfmt.UUID(ObjectID(ids[i])),
			Properties: props,
			Vector:     vectors[i],
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return document.StoreError("weaviate.upsert", err)
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return document.StoreError("weaviate.upsert", fmt.Errorf("object %s: %s", r.ID, r.Result.Errors.Error[0].Message))
		}
	}

	slog.DebugContext(ctx, "upserted chunks", "count", len(objects))
	return nil
}

func properties(id string, c document.Chunk) (map[string]interface{}, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata of %s: %w", id, err)
	}
	props := map[string]interface{}{
		"content":    c.Content,
		"chunkId":    id,
		"fileId":     document.StringValue(c.Metadata, document.KeyFileID),
		"userId":     document.StringValue(c.Metadata, document.KeyUserID),
		"documentId": document.StringValue(c.Metadata, document.KeyDocumentID),
		"source":     document.StringValue(c.Metadata, document.KeySource),
		"page":       document.StringValue(c.Metadata, document.KeyPage),
		"title":      document.StringValue(c.Metadata, document.KeyTitle),
		"metadata":   string(meta),
	}
	if n, ok := c.Metadata[document.KeyChunkNumber].(int); ok {
		props["chunkNumber"] = n
	}
	return props, nil
}

// Search runs a nearest-neighbour query restricted by exact-match filters.
func (s *Store) Search(ctx context.Context, query string, k int, filter map[string]string) ([]document.ScoredChunk, error) {
	where, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, document.ModelError("weaviate.search", err)
	}

	get := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)).
		WithLimit(k).
		WithFields(chunkFields(graphql.Field{Name: "distance"})...)
	if where != nil {
		get = get.WithWhere(where)
	}

	res, err := get.Do(ctx)
	if err != nil {
		return nil, document.StoreError("weaviate.search", err)
	}
	if len(res.Errors) > 0 {
		return nil, document.StoreError("weaviate.search", graphqlError(res.Errors))
	}

	var results []document.ScoredChunk
	for _, props := range rows(res.Data, "Get") {
		c := decodeChunk(props)
		score := 0.0
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				score = 1 - d
			}
		}
		results = append(results, document.ScoredChunk{Chunk: c, Score: score})
	}
	return results, nil
}

// List returns up to limit stored chunks for inspection.
func (s *Store) List(ctx context.Context, limit int) ([]document.Chunk, error) {
	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithLimit(limit).
		WithFields(chunkFields()...).
		Do(ctx)
	if err != nil {
		return nil, document.StoreError("weaviate.list", err)
	}
	if len(res.Errors) > 0 {
		return nil, document.StoreError("weaviate.list", graphqlError(res.Errors))
	}

	chunks := []document.Chunk{}
	for _, props := range rows(res.Data, "Get") {
		chunks = append(chunks, decodeChunk(props))
	}
	return chunks, nil
}

// DeleteStale removes a file's chunks numbered keep or higher.
func (s *Store) DeleteStale(ctx context.Context, fileID string, keep int) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithOperator(filters.And).
			WithOperands([]*filters.WhereBuilder{
				filters.Where().
					WithPath([]string{"fileId"}).
					WithOperator(filters.Equal).
					WithValueText(fileID),
				filters.Where().
					WithPath([]string{"chunkNumber"}).
					WithOperator(filters.GreaterThanEqual).
					WithValueInt(int64(keep)),
			})).
		Do(ctx)
	if err != nil {
		return document.StoreError("weaviate.delete_stale", err)
	}
	return nil
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, document.StoreError("weaviate.count", err)
	}
	if len(res.Errors) > 0 {
		return 0, document.StoreError("weaviate.count", graphqlError(res.Errors))
	}

	for _, row := range rows(res.Data, "Aggregate") {
		if meta, ok := row["meta"].(map[string]interface{}); ok {
			if count, ok := meta["count"].(float64); ok {
				return int(count), nil
			}
		}
	}
	return 0, nil
}

func buildWhere(filter map[string]string) (*filters.WhereBuilder, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	// stable query text
	sort.Strings(keys)

	operands := make([]*filters.WhereBuilder, 0, len(keys))
	for _, k := range keys {
		path, ok := filterPaths[k]
		if !ok {
			return nil, document.ValidationError("weaviate.search", fmt.Sprintf("unsupported filter field %q", k))
		}
		operands = append(operands, filters.Where().
			WithPath([]string{path}).
			WithOperator(filters.Equal).
			WithValueText(filter[k]))
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands), nil
}

func chunkFields(additional ...graphql.Field) []graphql.Field {
	extra := append([]graphql.Field{{Name: "id"}}, additional...)
	return []graphql.Field{
		{Name: "content"},
		{Name: "chunkId"},
		{Name: "fileId"},
		{Name: "userId"},
		{Name: "documentId"},
		{Name: "chunkNumber"},
		{Name: "metadata"},
		{Name: "_additional", Fields: extra},
	}
}

func rows(data map[string]models.JSONObject, op string) []map[string]interface{} {
	section, ok := data[op].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := section[vector.ClassName].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		if props, ok := r.(map[string]interface{}); ok {
			out = append(out, props)
		}
	}
	return out
}

// decodeChunk rebuilds a chunk from stored properties. The typed ownership
// properties take precedence over the metadata JSON.
func decodeChunk(props map[string]interface{}) document.Chunk {
	c := document.Chunk{Metadata: map[string]interface{}{}}
	if content, ok := props["content"].(string); ok {
		c.Content = content
	}
	if id, ok := props["chunkId"].(string); ok {
		c.ID = id
	}
	if raw, ok := props["metadata"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Metadata); err != nil {
			slog.Warn("failed to decode chunk metadata", "chunk_id", c.ID, "error", err)
			c.Metadata = map[string]interface{}{}
		}
	}
	for prop, key := range map[string]string{"fileId": document.KeyFileID, "userId": document.KeyUserID, "documentId": document.KeyDocumentID} {
		if v, ok := props[prop].(string); ok && v != "" {
			c.Metadata[key] = v
		}
	}
	if n, ok := props["chunkNumber"].(float64); ok {
		c.Metadata[document.KeyChunkNumber] = int(n)
	}
	return c
}

func graphqlError(errs []*models.GraphQLError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			msgs = append(msgs, e.Message)
		}
	}
	return fmt.Errorf("graphql error: %s", strings.Join(msgs, "; "))
}
