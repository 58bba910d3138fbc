package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	chatModelName      = "gemini-1.5-flash-latest"
	embeddingModelName = "text-embedding-004"

	// Embedding inputs are truncated, never rejected.
	embedMaxChars = 1000

	completionMaxTokens   = 1500
	completionTemperature = 0.3

	embedTimeout      = 30 * time.Second
	completionTimeout = 60 * time.Second

	chatSystemInstruction = "You are a helpful assistant that helps users understand PDF documents. " +
		"Provide accurate, detailed responses based on the document content. " +
		"Always include relevant page citations when possible. " +
		"Structure your responses clearly and provide specific information from the document. " +
		"If you cannot find specific information, politely say so and suggest alternative questions."
)

// ErrNoAPIKey indicates that no Gemini credential is configured, so neither
// embeddings nor grounded completions are available.
var ErrNoAPIKey = errors.New("gemini api key not configured")

// Embedder converts text into a fixed-length vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer submits an assembled conversation to a text-completion service.
// The last element of contents must be the live user turn.
type Completer interface {
	Complete(ctx context.Context, contents []*genai.Content) (string, error)
}

// LLMService is the Gemini-backed Embedder and Completer. It is only
// constructed when an API key is configured.
type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	em := s.client.EmbeddingModel(embeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(truncateRunes(text, embedMaxChars)))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

func (s *LLMService) Complete(ctx context.Context, contents []*genai.Content) (string, error) {
	if len(contents) == 0 {
		return "", fmt.Errorf("prompt history is empty for chat completion")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return "", fmt.Errorf("last message in history is not from 'user', cannot proceed with chat completion")
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	model := s.client.GenerativeModel(chatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}
	maxTokens := int32(completionMaxTokens)
	temp := float32(completionTemperature)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	chatSession := model.StartChat()
	chatSession.History = contents[:len(contents)-1]

	resp, err := chatSession.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return responseText.String(), nil
}

// truncateRunes keeps the first n runes of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
