package store

import "time"

// Document is an ingested PDF: its extracted text, the page-like chunks the
// segmenter produced, and where the original file lives on disk. Documents
// are immutable once stored.
type Document struct {
	ID          string    `json:"id"` // UUID
	Filename    string    `json:"filename"`
	Filepath    string    `json:"filepath"`
	UploadDate  time.Time `json:"uploadDate"`
	Pages       []Chunk   `json:"pages"`
	TextContent string    `json:"textContent"`
}

// Chunk is the smallest citable span of a document. PageNumber is 1-based
// and contiguous within a document. Embedding is empty when the embedding
// call failed or no embedding service is configured.
type Chunk struct {
	PageNumber int       `json:"pageNumber"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"` // internal, not exposed over HTTP
}

// Embedded reports whether this chunk carries a usable embedding vector.
func (c Chunk) Embedded() bool { return len(c.Embedding) > 0 }

// ConversationEntry is one question/answer exchange about a document.
// Entries are append-only and ordered by arrival.
type ConversationEntry struct {
	ID        string    `json:"id"` // UUID
	Message   string    `json:"message"`
	Response  Response  `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Response is a generated answer plus the citations that justify it.
type Response struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Citation points an answer back at a page of the document it came from.
// Relevance is a ranking score, not a probability; it is 0 for citations
// produced by the unscored keyword fallback.
type Citation struct {
	Page      int     `json:"page"`
	Label     string  `json:"text"`
	Relevance float64 `json:"relevance,omitempty"`
	Preview   string  `json:"preview,omitempty"`
}
