package store

import "sync"

// MemStore keeps documents and conversations in process memory. This is the
// default store: state lives exactly as long as the process.
type MemStore struct {
	mu        sync.RWMutex
	documents map[string]*Document
	history   map[string][]ConversationEntry
}

func NewMemStore() *MemStore {
	return &MemStore{
		documents: make(map[string]*Document),
		history:   make(map[string][]ConversationEntry),
	}
}

func (s *MemStore) PutDocument(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	if _, ok := s.history[doc.ID]; !ok {
		s.history[doc.ID] = []ConversationEntry{}
	}
	return nil
}

func (s *MemStore) GetDocument(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *MemStore) AppendEntry(documentID string, entry *ConversationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return ErrNotFound
	}
	s.history[documentID] = append(s.history[documentID], *entry)
	return nil
}

func (s *MemStore) History(documentID string) ([]ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[documentID]
	out := make([]ConversationEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemStore) Close() error { return nil }
