package core

import (
	"math"
	"regexp"
	"strings"

	"github.com/pagechat/pagechat/internal/store"
)

const (
	// Segments shorter than this after trimming are noise (page numbers,
	// stray headers) and are dropped.
	minSegmentLength = 20
	// Window size for the synthetic-page fallback.
	wordsPerWindow = 500
)

// Structural page breaks: form feeds, or runs of blank lines.
var pageBreakPattern = regexp.MustCompile(`\f|\n\s*\n\s*\n`)

// SegmentText splits extracted document text into ordered page-like chunks.
// It prefers structural breaks; when none survive the minimum-length filter
// it falls back to fixed windows of words. Positions are 1-based and
// contiguous. Whitespace-only input yields no chunks.
func SegmentText(text string) []store.Chunk {
	var chunks []store.Chunk

	for _, segment := range pageBreakPattern.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if len(segment) < minSegmentLength {
			continue
		}
		chunks = append(chunks, store.Chunk{
			PageNumber: len(chunks) + 1,
			Content:    segment,
		})
	}

	if len(chunks) == 0 {
		chunks = windowChunks(text)
	}
	return chunks
}

// windowChunks builds synthetic pages of wordsPerWindow words each. No
// minimum-length filter here: a document with any words at all must yield
// at least one chunk.
func windowChunks(text string) []store.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	total := int(math.Ceil(float64(len(words)) / float64(wordsPerWindow)))
	chunks := make([]store.Chunk, 0, total)
	for i := 0; i < total; i++ {
		start := i * wordsPerWindow
		end := start + wordsPerWindow
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, store.Chunk{
			PageNumber: i + 1,
			Content:    strings.TrimSpace(strings.Join(words[start:end], " ")),
		})
	}
	return chunks
}
