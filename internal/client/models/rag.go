package models

import (
	"encoding/json"
	"strings"
)

// IngestRequest adds text or a server-side file to the vector store.
// Exactly one of Content and FilePath is expected.
type IngestRequest struct {
	Content  string   `json:"content,omitempty"`
	FilePath string   `json:"file_path,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type IngestResponse struct {
	// Ingested is the number of chunks written.
	Ingested int    `json:"ingested"`
	Dataset  string `json:"dataset"`
}

// RagQueryRequest is the body of POST /rag/query. Stream is set by the
// service, not by callers.
type RagQueryRequest struct {
	Query    string         `json:"query"`
	TopK     int            `json:"top_k,omitempty"`
	Filters  map[string]any `json:"filters,omitempty"`
	MinScore float64        `json:"min_score,omitempty"`
	Stream   bool           `json:"stream"`
}

// RagContext is one retrieved chunk. Metadata always carries doc_id and
// chunk_id; other keys depend on the ingest source.
type RagContext struct {
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata"`
}

// DocID returns metadata["doc_id"] or "".
func (c RagContext) DocID() string { return metaString(c.Metadata, "doc_id") }

// ChunkID returns metadata["chunk_id"] or "".
func (c RagContext) ChunkID() string { return metaString(c.Metadata, "chunk_id") }

type RagQueryResponse struct {
	Answer   string       `json:"answer"`
	Contexts []RagContext `json:"contexts"`
}

type RagStatsResponse struct {
	TotalDocs   int       `json:"total_docs"`
	TotalChunks int       `json:"total_chunks"`
	Docs        []DocInfo `json:"docs"`
}

func metaString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return ""
	}
}

// splitTags parses the comma separated tag list the server stores.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
