package document

import (
	"fmt"
	"strings"
)

// Reserved metadata keys owned by the ingestion pipeline.
const (
	KeyFileID      = "file_id"
	KeyUserID      = "user_id"
	KeyDocumentID  = "document_id"
	KeyChunkNumber = "chunk_number"

	KeySource   = "source"
	KeyPage     = "page"
	KeyTitle    = "title"
	KeyLanguage = "language"
)

// ProvenancePrefix namespaces inherited keys that collide with reserved ones.
const ProvenancePrefix = "source_"

var reservedKeys = map[string]bool{
	KeyFileID:      true,
	KeyUserID:      true,
	KeyDocumentID:  true,
	KeyChunkNumber: true,
}

// Segment is a raw piece of loaded text with provenance metadata.
type Segment struct {
	Text     string
	Metadata map[string]interface{}
}

// Chunk is the unit of retrieval.
type Chunk struct {
	ID       string                 `json:"id,omitempty"`
	Content  string                 `json:"page_content"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// ChunkID returns the deterministic id of the n-th chunk of a file.
func ChunkID(fileID string, n int) string {
	return fmt.Sprintf("%s_chunk_%d", fileID, n)
}

// IsReserved reports whether key is written by the pipeline.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// MergeMetadata combines inherited provenance with pipeline-owned keys.
// Pipeline keys always win. An inherited key that collides with a reserved key is
// kept under ProvenancePrefix+key; if the inherited map already uses that name,
// the prefix is repeated until the name is free, so no inherited value is lost.
// Neither input is modified.
func MergeMetadata(inherited, pipeline map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(inherited)+len(pipeline))
	for k, v := range inherited {
		if IsReserved(k) {
			out[namespacedKey(inherited, k)] = v
			continue
		}
		out[k] = v
	}
	for k, v := range pipeline {
		out[k] = v
	}
	return out
}

func namespacedKey(inherited map[string]interface{}, key string) string {
	name := ProvenancePrefix + key
	for {
		if _, taken := inherited[name]; !taken {
			return name
		}
		name = ProvenancePrefix + name
	}
}

// CloneMetadata returns a shallow copy of m (never nil).
func CloneMetadata(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StringValue renders a metadata value as text, returning "" for missing values.
func StringValue(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
