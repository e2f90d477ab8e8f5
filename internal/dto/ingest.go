package dto

// IngestRequest adds a document to the knowledge base.
// @Description Exactly one of content or file_path must be given
type IngestRequest struct {
	Content  string            `json:"content,omitempty"`
	FilePath string            `json:"file_path,omitempty"`
	FileType string            `json:"file_type,omitempty" example:"pdf"`
	Source   string            `json:"source" example:"Neuroscience Online"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IngestResponse reports the outcome of an ingestion.
type IngestResponse struct {
	Success       bool     `json:"success"`
	ChunksCreated int      `json:"chunks_created"`
	Message       string   `json:"message"`
	DocumentID    string   `json:"document_id"`
	ChunkIDs      []string `json:"chunk_ids,omitempty"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
