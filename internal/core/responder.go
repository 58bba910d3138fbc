package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pagechat/pagechat/internal/store"
)

const (
	// How much selected context text goes into the completion prompt.
	contextMaxChars = 3000
	// How many prior exchanges accompany the live question.
	maxHistoryTurns = 5

	summaryExcerptChars = 200
	toolsExcerptChars   = 300
	genericExcerptChars = 250

	summaryTemplate = "Based on the document, here's a summary: %s"
	toolsTemplate   = "The document mentions these tools and skills: %s"
	genericTemplate = "I found relevant information in the document: %s"

	// ApologyResponse is the fixed answer used whenever response generation
	// fails; it is never replaced by a raw error.
	ApologyResponse = "I'm sorry, I couldn't find specific information about that in the document. " +
		"Could you try rephrasing your question?"
)

// Responder turns a question plus selected document context into an answer
// and the citations that justify it. The implementation is chosen once at
// startup: Gemini-grounded when a credential is configured, deterministic
// templates otherwise.
type Responder interface {
	Respond(ctx context.Context, query, contextText string, history []store.ConversationEntry) (string, error)
	Citations(query string, chunks []store.Chunk) []store.Citation
}

// GroundedResponder answers via the external completion service, restricted
// to the supplied context text.
type GroundedResponder struct {
	completer Completer
}

func NewGroundedResponder(completer Completer) *GroundedResponder {
	return &GroundedResponder{completer: completer}
}

func (r *GroundedResponder) Respond(ctx context.Context, query, contextText string, history []store.ConversationEntry) (string, error) {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	// Both sides of each prior exchange, oldest first, then the live
	// question carrying the selected document context.
	var contents []*genai.Content
	for _, entry := range history {
		contents = append(contents,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(entry.Message)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(entry.Response.Text)}},
		)
	}
	finalTurn := fmt.Sprintf("Document content: %s\n\nUser question: %s",
		truncateRunes(contextText, contextMaxChars), query)
	contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(finalTurn)}})

	return r.completer.Complete(ctx, contents)
}

func (r *GroundedResponder) Citations(query string, chunks []store.Chunk) []store.Citation {
	return ScoreCitations(query, chunks)
}

// TemplateResponder is the credential-free fallback: it classifies the
// question by substring and interpolates a fixed-length excerpt of the
// context into a canned template.
type TemplateResponder struct{}

func NewTemplateResponder() *TemplateResponder { return &TemplateResponder{} }

func (r *TemplateResponder) Respond(_ context.Context, query, contextText string, _ []store.ConversationEntry) (string, error) {
	queryLower := strings.ToLower(query)
	switch {
	case strings.Contains(queryLower, "summar") || strings.Contains(queryLower, "main topic"):
		return fmt.Sprintf(summaryTemplate, excerpt(contextText, summaryExcerptChars)), nil
	case strings.Contains(queryLower, "tools") || strings.Contains(queryLower, "skills"):
		return fmt.Sprintf(toolsTemplate, excerpt(contextText, toolsExcerptChars)), nil
	default:
		return fmt.Sprintf(genericTemplate, excerpt(contextText, genericExcerptChars)), nil
	}
}

func (r *TemplateResponder) Citations(query string, chunks []store.Chunk) []store.Citation {
	return KeywordCitations(query, chunks)
}

func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
