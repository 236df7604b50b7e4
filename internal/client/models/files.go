package models

// CreateDirRequest is the body of POST /files/dirs.
type CreateDirRequest struct {
	DirectoryPath string `json:"directory_path"`
}

// DirListing is returned by GET /files/dirs.
type DirListing struct {
	Path        string   `json:"path"`
	Directories []string `json:"directories"`
}

// DocInfo is the aggregated view of one uploaded document.
type DocInfo struct {
	DocID         string `json:"doc_id"`
	Filename      string `json:"filename"`
	DirectoryPath string `json:"directory_path"`
	ChunkCount    int    `json:"chunk_count"`
	Tags          string `json:"tags,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

// TagList returns Tags split on commas, without blanks.
func (d DocInfo) TagList() []string { return splitTags(d.Tags) }

type ChunkInfo struct {
	ChunkID  string         `json:"chunk_id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// UploadRequest describes a multipart upload to POST /files/upload. Index
// is sent only when not nil.
type UploadRequest struct {
	DirectoryPath string
	Tags          string
	Index         *bool
}
