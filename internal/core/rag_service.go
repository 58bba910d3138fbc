package core

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/pagechat/pagechat/internal/store"
	"github.com/pagechat/pagechat/internal/utils"
)

// NumRelevantChunks is how many chunks are retrieved as answer context.
const NumRelevantChunks = 3

// RAGService ranks a document's chunks against a query by embedding
// similarity. The embedder may be nil when no credential is configured, in
// which case every ranking attempt fails with ErrNoAPIKey and the caller
// falls back to keyword-based selection.
type RAGService struct {
	embedder Embedder
}

func NewRAGService(embedder Embedder) *RAGService {
	return &RAGService{embedder: embedder}
}

type ScoredChunk struct {
	Chunk      store.Chunk
	Similarity float32
}

// TopChunks embeds the query and returns the topN chunks by cosine
// similarity, highest first. Chunks without an embedding score 0 and rank
// last; equal scores keep ascending page order (stable sort over the
// document's page order).
func (s *RAGService) TopChunks(ctx context.Context, query string, chunks []store.Chunk, topN int) ([]ScoredChunk, error) {
	if s.embedder == nil {
		return nil, ErrNoAPIKey
	}
	if topN <= 0 {
		topN = NumRelevantChunks
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		var similarity float32
		if chunk.Embedded() {
			similarity, err = utils.CosineSimilarity(queryEmbedding, chunk.Embedding)
			if err != nil {
				log.Printf("Error calculating similarity for page %d: %v. Scoring as 0.", chunk.PageNumber, err)
				similarity = 0
			}
		}
		// Missing embeddings score 0 rather than being dropped, so every
		// page stays addressable.
		scored = append(scored, ScoredChunk{Chunk: chunk, Similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if topN > len(scored) {
		topN = len(scored)
	}
	return scored[:topN], nil
}
