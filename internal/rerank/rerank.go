// Package rerank implements the cross-encoder reranking contract of
// spec.md §4.H: rescoring and reordering the top-N fused candidates.
// The cross-encoder itself is an external model load this repository
// does not own (no cross-encoder inference library is present in the
// pack); this package ships the contract plus a deterministic
// lexical-overlap FallbackScorer, which cmd/rag-debug plugs in whenever
// a rerank model name is configured. With no Scorer, Rerank is a no-op
// that reports the skip (warn and continue, never panic).
package rerank

import (
	"strings"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// Scorer scores a single (query, text) pair. Implementations must be
// safe for concurrent use; the cross-encoder itself is loaded once per
// process (spec.md §4.H "one instance per process, lazy").
type Scorer interface {
	Name() string
	Score(query, text string) float64
}

// Reranker truncates each (query, item.text) pair to MaxChars before
// scoring, then re-sorts the items by the new score.
type Reranker struct {
	scorer   Scorer
	maxChars int
}

// New builds a Reranker. scorer may be nil — Rerank then degrades to a
// no-op that still reports the skip via its bool return, letting the
// caller write the "rerank.skipped=true" trace event spec.md §4.H and
// §8 require. maxChars <= 0 defaults to 1800.
func New(scorer Scorer, maxChars int) *Reranker {
	if maxChars <= 0 {
		maxChars = 1800
	}
	return &Reranker{scorer: scorer, maxChars: maxChars}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Rerank scores and reorders items by the configured Scorer, returning
// at most topK items. The second return value reports whether scoring
// actually ran (false when no Scorer is configured, in which case the
// input order is returned unchanged for up to topK items).
func (r *Reranker) Rerank(query string, items ragmodel.RankedList, topK int) (ragmodel.RankedList, bool) {
	if topK <= 0 || topK > len(items) {
		topK = len(items)
	}
	if r.scorer == nil {
		return items.Top(topK), false
	}

	truncatedQuery := truncate(query, r.maxChars)
	out := make(ragmodel.RankedList, len(items))
	for i, item := range items {
		text := ""
		if item.Chunk != nil {
			text = item.Chunk.Text
		}
		score := r.scorer.Score(truncatedQuery, truncate(text, r.maxChars))
		out[i] = ragmodel.RankedItem{ChunkID: item.ChunkID, Score: score, Chunk: item.Chunk}
	}
	out.Sort()
	return out.Top(topK), true
}

// FallbackScorer is a deterministic lexical-overlap scorer standing in
// for a cross-encoder, which this package does not ship: it scores a candidate by the fraction of
// query tokens it contains, plus a small bonus for contiguous bigram
// matches, so that even the "no model loaded" path produces a sensible
// ordering rather than a pure pass-through.
type FallbackScorer struct{}

func (FallbackScorer) Name() string { return "lexical_overlap_fallback" }

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'à' && r <= 'ÿ')
	})
}

func (FallbackScorer) Score(query, text string) float64 {
	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return 0
	}
	tSet := map[string]bool{}
	for _, t := range tokenize(text) {
		tSet[t] = true
	}

	hits := 0
	for _, q := range qTokens {
		if tSet[q] {
			hits++
		}
	}
	overlap := float64(hits) / float64(len(qTokens))

	bigramBonus := 0.0
	for i := 0; i+1 < len(qTokens); i++ {
		bigram := qTokens[i] + " " + qTokens[i+1]
		if strings.Contains(strings.ToLower(text), bigram) {
			bigramBonus += 0.05
		}
	}
	return overlap + bigramBonus
}

var _ Scorer = FallbackScorer{}
