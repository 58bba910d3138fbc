package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pagechat/pagechat/internal/store"
)

// TextExtractor pulls plain text out of a stored upload. Page boundaries
// are expected as form feeds so the segmenter can honour them.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// DocumentService ingests uploads: extract, segment, embed, persist. The
// embedder may be nil (no credential); ingestion then stores chunks without
// vectors and retrieval degrades to keyword scoring.
type DocumentService struct {
	store     store.Store
	extractor TextExtractor
	embedder  Embedder
}

func NewDocumentService(st store.Store, extractor TextExtractor, embedder Embedder) *DocumentService {
	return &DocumentService{store: st, extractor: extractor, embedder: embedder}
}

// Ingest processes an uploaded PDF already saved at path and stores the
// resulting document. The document is usable even when some or all chunk
// embeddings failed.
func (s *DocumentService) Ingest(ctx context.Context, filename, path string) (*store.Document, error) {
	text, err := s.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}

	pages := SegmentText(text)
	s.embedPages(ctx, pages)

	doc := &store.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		Filepath:    path,
		UploadDate:  time.Now(),
		Pages:       pages,
		TextContent: text,
	}
	if err := s.store.PutDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	log.Printf("Ingested %q as document %s (%d pages)", filename, doc.ID, len(pages))
	return doc, nil
}

// embedPages embeds every chunk concurrently and waits for all calls. A
// failed call leaves that chunk's vector empty; ingestion never fails on
// embedding errors.
func (s *DocumentService) embedPages(ctx context.Context, pages []store.Chunk) {
	if s.embedder == nil {
		if len(pages) > 0 {
			log.Printf("Embedding unavailable (%v); storing %d pages without vectors", ErrNoAPIKey, len(pages))
		}
		return
	}

	var wg sync.WaitGroup
	for i := range pages {
		wg.Add(1)
		go func(chunk *store.Chunk) {
			defer wg.Done()
			vector, err := s.embedder.Embed(ctx, chunk.Content)
			if err != nil {
				log.Printf("Embedding failed for page %d: %v", chunk.PageNumber, err)
				return
			}
			chunk.Embedding = vector
		}(&pages[i])
	}
	wg.Wait()
}
