package store

import "errors"

// ErrNotFound is returned when a document id does not exist in the store.
var ErrNotFound = errors.New("document not found")

// Store holds documents and their conversation histories. Implementations
// must be safe for concurrent use by HTTP handlers.
type Store interface {
	// PutDocument stores an ingested document and initialises its (empty)
	// conversation history.
	PutDocument(doc *Document) error
	// GetDocument returns the document for id, or ErrNotFound.
	GetDocument(id string) (*Document, error)
	// AppendEntry appends a conversation entry for the document, or returns
	// ErrNotFound when the document does not exist.
	AppendEntry(documentID string, entry *ConversationEntry) error
	// History returns the ordered conversation for the document. An unknown
	// id yields an empty slice, not an error.
	History(documentID string) ([]ConversationEntry, error)
	Close() error
}
