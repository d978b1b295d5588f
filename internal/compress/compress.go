// Package compress implements the token-budgeted extractive compressor
// of spec.md §4.J: for each chunk, extract query-relevant sentences
// until either the chunk's character cap or the remaining global token
// budget is exhausted, never increasing a chunk's length.
package compress

import (
	"regexp"
	"strings"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// DefaultMaxChars and DefaultMinChars are spec.md §4.J's per-chunk
// character cap and the floor below which a chunk is left untouched
// (already short enough that compressing it further would lose
// meaning).
const (
	DefaultMaxChars = 900
	DefaultMinChars = 100
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?]+\s+|\n+)`)

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'à' && r <= 'ÿ')
	})
}

// estimateTokens approximates token count at ~4 chars/token, the
// common tiktoken-adjacent rule of thumb used throughout the pack's
// budget-accounting code.
func estimateTokens(s string) int {
	n := len(s) / 4
	if n < 1 && s != "" {
		n = 1
	}
	return n
}

func scoreSentence(sentence string, queryTokens map[string]int) float64 {
	tokens := tokenize(sentence)
	if len(tokens) == 0 {
		return 0
	}
	overlap := 0
	for _, tok := range tokens {
		if queryTokens[tok] > 0 {
			overlap++
		}
	}
	score := float64(overlap) / float64(len(tokens))

	bigramBonus := 0.0
	for i := 0; i+1 < len(tokens); i++ {
		if queryTokens[tokens[i]] > 0 && queryTokens[tokens[i+1]] > 0 {
			bigramBonus += 0.05
		}
	}
	return score + bigramBonus
}

// Result is one chunk's compression outcome, carrying the before/after
// character counts the trace records (spec.md §4.J).
type Result struct {
	ChunkID          string
	OriginalChars    int
	CompressedChars  int
	CompressedText   string
}

// Compressor shrinks chunk text to fit a token budget while preserving
// the sentences most relevant to the query.
type Compressor struct {
	maxChars int
	minChars int
}

// New builds a Compressor. maxChars/minChars <= 0 fall back to the
// package defaults.
func New(maxChars, minChars int) *Compressor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Compressor{maxChars: maxChars, minChars: minChars}
}

// Compress processes items in order, spending from the shared
// tokenBudget as it goes; a chunk already at or below c.minChars, or
// reached after the budget is spent, is left untouched (copied, not
// re-extracted). Every other chunk is re-extracted, and its text never
// comes out longer than it went in (spec.md §4.J).
func (c *Compressor) Compress(query string, items ragmodel.RankedList, tokenBudget int) (ragmodel.RankedList, []Result) {
	queryTokens := map[string]int{}
	for _, t := range tokenize(query) {
		queryTokens[t]++
	}

	out := make(ragmodel.RankedList, len(items))
	results := make([]Result, 0, len(items))
	remaining := tokenBudget

	for i, item := range items {
		out[i] = item
		if item.Chunk == nil {
			continue
		}
		original := item.Chunk.Text
		if len(original) <= c.minChars || remaining <= 0 {
			results = append(results, Result{ChunkID: item.ChunkID, OriginalChars: len(original), CompressedChars: len(original)})
			continue
		}

		compressed := c.compressText(original, queryTokens, remaining)
		spent := estimateTokens(compressed)
		if spent > remaining {
			spent = remaining
		}
		remaining -= spent

		newChunk := *item.Chunk
		newChunk.Text = compressed
		out[i].Chunk = &newChunk
		results = append(results, Result{ChunkID: item.ChunkID, OriginalChars: len(original), CompressedChars: len(compressed)})
	}
	return out, results
}

func (c *Compressor) compressText(text string, queryTokens map[string]int, remainingBudget int) string {
	sentences := sentenceSplit.Split(text, -1)
	type scored struct {
		idx   int
		text  string
		score float64
	}
	var ranked []scored
	for i, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		ranked = append(ranked, scored{idx: i, text: s, score: scoreSentence(s, queryTokens)})
	}

	// Stable sort by score descending, preserving original sentence order
	// on ties so the result reads naturally rather than shuffled.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	budgetChars := c.maxChars
	if remainingBudget*4 < budgetChars {
		budgetChars = remainingBudget * 4
	}

	var selected []scored
	total := 0
	for _, s := range ranked {
		if total+len(s.text) > budgetChars {
			break
		}
		selected = append(selected, s)
		total += len(s.text)
	}
	if len(selected) == 0 {
		if len(text) <= budgetChars {
			return text
		}
		if budgetChars <= 0 {
			return ""
		}
		if len(ranked) > 0 && len(ranked[0].text) > budgetChars {
			return ranked[0].text[:budgetChars]
		}
		return text[:budgetChars]
	}

	for i := 1; i < len(selected); i++ {
		for j := i; j > 0 && selected[j].idx < selected[j-1].idx; j-- {
			selected[j], selected[j-1] = selected[j-1], selected[j]
		}
	}

	parts := make([]string, len(selected))
	for i, s := range selected {
		parts[i] = s.text
	}
	result := strings.Join(parts, ". ")
	if len(result) > len(text) {
		return text
	}
	return result
}
