package core

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pagechat/pagechat/internal/store"
)

// ChatService orchestrates a question/answer turn: retrieve the relevant
// chunks, generate an answer restricted to them, attach citations, and
// append the exchange to the document's conversation.
type ChatService struct {
	store      store.Store
	ragService *RAGService
	responder  Responder
}

func NewChatService(st store.Store, rag *RAGService, responder Responder) *ChatService {
	return &ChatService{store: st, ragService: rag, responder: responder}
}

func (s *ChatService) GetDocument(id string) (*store.Document, error) {
	return s.store.GetDocument(id)
}

func (s *ChatService) History(documentID string) ([]store.ConversationEntry, error) {
	return s.store.History(documentID)
}

// PostMessage answers a question about a document. Unknown documents fail
// with store.ErrNotFound before any generation happens; generation failures
// degrade to a fixed apology response rather than an error.
func (s *ChatService) PostMessage(ctx context.Context, documentID, message string) (*store.ConversationEntry, error) {
	doc, err := s.store.GetDocument(documentID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.History(documentID)
	if err != nil {
		log.Printf("Error loading history for document %s: %v. Proceeding without history.", documentID, err)
		history = nil
	}

	selected := s.selectChunks(ctx, message, doc)
	contextText := joinChunks(selected)

	var response store.Response
	answer, err := s.responder.Respond(ctx, message, contextText, history)
	if err != nil {
		log.Printf("Response generation failed for document %s: %v", documentID, err)
		response = store.Response{Text: ApologyResponse, Citations: []store.Citation{}}
	} else {
		citations := s.responder.Citations(message, selected)
		if citations == nil {
			citations = []store.Citation{}
		}
		response = store.Response{Text: answer, Citations: citations}
	}

	entry := &store.ConversationEntry{
		ID:        uuid.NewString(),
		Message:   message,
		Response:  response,
		Timestamp: time.Now(),
	}
	if err := s.store.AppendEntry(documentID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// selectChunks picks the context chunks via embedding similarity, falling
// back to the document's first chunks when ranking is unavailable.
func (s *ChatService) selectChunks(ctx context.Context, message string, doc *store.Document) []store.Chunk {
	scored, err := s.ragService.TopChunks(ctx, message, doc.Pages, NumRelevantChunks)
	if err != nil {
		log.Printf("Semantic ranking unavailable for document %s: %v. Using leading pages.", doc.ID, err)
		n := NumRelevantChunks
		if n > len(doc.Pages) {
			n = len(doc.Pages)
		}
		return doc.Pages[:n]
	}

	chunks := make([]store.Chunk, 0, len(scored))
	for _, sc := range scored {
		chunks = append(chunks, sc.Chunk)
	}
	return chunks
}

func joinChunks(chunks []store.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
