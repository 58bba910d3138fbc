package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pagechat/pagechat/internal/store"
)

const (
	maxCitations  = 5
	previewLength = 150

	keywordMatchWeight = 0.5
	phraseMatchBonus   = 3.0
	sectionMatchBonus  = 2.0
	termMatchBonus     = 1.5
)

// Section headings that usually carry the substance of a document.
var importantSections = []string{
	"skills", "experience", "education", "projects", "summary",
	"about", "work", "job", "career",
}

// Technology names that questions tend to target directly.
var technicalTerms = []string{
	"java", "python", "javascript", "react", "node",
	"sql", "html", "css", "api", "database",
}

// ScoreCitations ranks chunks against a query with keyword-frequency
// heuristics: whole-word matches, an exact-phrase bonus, and bonuses for
// important-section and technical-term vocabulary. Pure and deterministic;
// chunks scoring zero are excluded, and at most maxCitations results are
// returned, highest score first (ties keep ascending page order).
func ScoreCitations(query string, chunks []store.Chunk) []store.Citation {
	keywords := queryKeywords(query, 2)
	queryLower := strings.ToLower(query)

	type scoredPage struct {
		chunk store.Chunk
		score float64
	}
	var scored []scoredPage

	for _, chunk := range chunks {
		contentLower := strings.ToLower(chunk.Content)
		var score float64

		for _, keyword := range keywords {
			score += keywordMatchWeight * float64(countWholeWordMatches(contentLower, keyword))
		}

		if strings.Contains(contentLower, queryLower) {
			score += phraseMatchBonus
		}

		for _, section := range importantSections {
			if strings.Contains(contentLower, section) && anyKeywordContains(keywords, section) {
				score += sectionMatchBonus
			}
		}

		for _, term := range technicalTerms {
			if strings.Contains(contentLower, term) && anyKeywordContains(keywords, term) {
				score += termMatchBonus
			}
		}

		if score > 0 {
			scored = append(scored, scoredPage{chunk: chunk, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > maxCitations {
		scored = scored[:maxCitations]
	}

	citations := make([]store.Citation, 0, len(scored))
	for _, sp := range scored {
		citations = append(citations, store.Citation{
			Page:      sp.chunk.PageNumber,
			Label:     fmt.Sprintf("Page %d", sp.chunk.PageNumber),
			Relevance: sp.score,
			Preview:   preview(sp.chunk.Content, previewLength),
		})
	}
	return citations
}

// KeywordCitations is the unscored fallback used with template responses:
// every page containing any query keyword longer than 3 characters is cited
// in page order, without relevance scores or previews.
func KeywordCitations(query string, chunks []store.Chunk) []store.Citation {
	keywords := queryKeywords(query, 3)

	var citations []store.Citation
	for _, chunk := range chunks {
		contentLower := strings.ToLower(chunk.Content)
		for _, keyword := range keywords {
			if strings.Contains(contentLower, keyword) {
				citations = append(citations, store.Citation{
					Page:  chunk.PageNumber,
					Label: fmt.Sprintf("Page %d", chunk.PageNumber),
				})
				break
			}
		}
	}
	return citations
}

// queryKeywords lowercases the query, strips surrounding punctuation from
// each word, and keeps words longer than minLen.
func queryKeywords(query string, minLen int) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if len(word) > minLen {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// countWholeWordMatches counts word-boundary occurrences of keyword in
// content. Both inputs are expected lowercased. Malformed input counts as
// zero matches.
func countWholeWordMatches(content, keyword string) int {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return 0
	}
	return len(re.FindAllStringIndex(content, -1))
}

func anyKeywordContains(keywords []string, term string) bool {
	for _, keyword := range keywords {
		if strings.Contains(keyword, term) {
			return true
		}
	}
	return false
}

// preview returns the first n runes of content with a trailing ellipsis for
// truncated text.
func preview(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
