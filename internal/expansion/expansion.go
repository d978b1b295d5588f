// Package expansion implements the two query-expansion strategies of
// spec.md §4.F: HyDE (hypothetical document embeddings) and multi-query
// reformulation, both LLM-driven and cached. Grounded on the teacher's
// use of internal/llm.Generator as the single pluggable text-generation
// seam, and on original_source's HyDE/multi-query prompt shapes.
package expansion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/semaj90/legal-rag-core/internal/llm"
	"github.com/semaj90/legal-rag-core/internal/lrucache"
)

// DefaultTTL is the cache lifetime for both HyDE and multi-query
// results (spec.md §4.F: "default TTL of one hour").
const DefaultTTL = time.Hour

const hydeSystemPrompt = "You are a legal research assistant. Write a short, plausible answer paragraph for the given question, as if it were drawn from a real legal document. Do not hedge or mention uncertainty."

const multiQuerySystemPrompt = "You are a legal search query rewriter. Given a user's legal query, produce alternative phrasings using synonyms and legal-domain vocabulary that would retrieve the same information."

// Expander runs HyDE and multi-query expansion against a pluggable
// llm.Generator, caching both kinds of result.
type Expander struct {
	gen           llm.Generator
	hydeCache     *lrucache.TTLCache[string]
	variantsCache *lrucache.TTLCache[[]string]
	hydeMaxTokens int
	multiQueryMax int
}

// New builds an Expander. hydeMaxTokens <= 0 defaults to 300;
// multiQueryMax <= 0 defaults to 3 (spec.md §4.F defaults).
func New(gen llm.Generator, hydeMaxTokens, multiQueryMax int) *Expander {
	if hydeMaxTokens <= 0 {
		hydeMaxTokens = 300
	}
	if multiQueryMax <= 0 {
		multiQueryMax = 3
	}
	return &Expander{
		gen:           gen,
		hydeCache:     lrucache.New[string](lrucache.DefaultCapacity),
		variantsCache: lrucache.New[[]string](lrucache.DefaultCapacity),
		hydeMaxTokens: hydeMaxTokens,
		multiQueryMax: multiQueryMax,
	}
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// HyDE returns a hypothetical-document-augmented vector-search text:
// the original query with an LLM-generated plausible answer appended.
// Lexical search is expected to keep using the original query text
// untouched (spec.md §4.F).
func (e *Expander) HyDE(ctx context.Context, query string) (string, error) {
	key := lrucache.KeyHash("hyde:" + normalize(query))
	if cached, ok := e.hydeCache.Get(key); ok {
		return cached, nil
	}

	hypothetical, err := e.gen.Generate(ctx, hydeSystemPrompt, query, e.hydeMaxTokens)
	if err != nil {
		return "", err
	}

	augmented := query + "\n\n" + hypothetical
	e.hydeCache.Set(key, augmented, DefaultTTL)
	return augmented, nil
}

// MultiQuery asks the LLM for up to e.multiQueryMax alternative
// phrasings of query, one per line. The original query is never
// included in the returned slice; callers run it separately.
func (e *Expander) MultiQuery(ctx context.Context, query string) ([]string, error) {
	key := lrucache.KeyHash("multiquery:" + normalize(query))
	if cached, ok := e.variantsCache.Get(key); ok {
		return cached, nil
	}

	prompt := fmt.Sprintf(
		"Produce exactly %d alternative phrasings of this query, one per line, no numbering, no commentary:\n\n%s",
		e.multiQueryMax, query,
	)
	out, err := e.gen.Generate(ctx, multiQuerySystemPrompt, prompt, 200)
	if err != nil {
		return nil, err
	}

	variants := parseVariants(out, e.multiQueryMax)
	e.variantsCache.Set(key, variants, DefaultTTL)
	return variants, nil
}

func parseVariants(raw string, max int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line == "" {
			continue
		}
		if dot := strings.IndexByte(line, '.'); dot > 0 && dot <= 3 {
			if _, err := strconv.Atoi(strings.TrimSpace(line[:dot])); err == nil {
				line = strings.TrimSpace(line[dot+1:])
			}
		}
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}
