// Package pipeline implements the Orchestrator state machine of
// spec.md §4.L: ROUTE → [EXPAND?] → FAN_OUT → FUSE → GATE, looping
// through CRAG retries, then RERANK → EXPAND_NBRS → COMPRESS → TRACE.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/semaj90/legal-rag-core/internal/compress"
	"github.com/semaj90/legal-rag-core/internal/crag"
	"github.com/semaj90/legal-rag-core/internal/embedding"
	"github.com/semaj90/legal-rag-core/internal/expand"
	"github.com/semaj90/legal-rag-core/internal/expansion"
	"github.com/semaj90/legal-rag-core/internal/fusion"
	"github.com/semaj90/legal-rag-core/internal/lexical"
	"github.com/semaj90/legal-rag-core/internal/lrucache"
	"github.com/semaj90/legal-rag-core/internal/ragerr"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
	"github.com/semaj90/legal-rag-core/internal/rerank"
	"github.com/semaj90/legal-rag-core/internal/router"
	"github.com/semaj90/legal-rag-core/internal/vector"
)

// LexicalSearcher is the slice of internal/lexical.Adapter's contract
// the orchestrator depends on, narrowed so tests can supply a fake.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, indices []string, query string, filter lexical.ScopeFilter, size int) ([]lexical.Hit, error)
}

// Flags carries the feature-flag defaults and overridable thresholds
// the Orchestrator reads. Per-request overrides in SearchRequest take
// precedence over these; these in turn are the environment-configured
// defaults (spec.md §4.L precedence: per-request > env > default).
type Flags struct {
	EnableHyde           bool
	EnableMultiQuery     bool
	EnableCRAG           bool
	EnableRerank         bool
	EnableCompression    bool
	EnableChunkExpansion bool

	RRFK          int
	LexicalWeight float64
	VectorWeight  float64

	RequestDeadline time.Duration

	CRAGMinBestScore float64
	CRAGMinAvgScore  float64
	CRAGMaxRetries   int

	RerankTopK          int
	CompressionMaxChars int
	CompressionMinChars int
	CompressionBudget    int
}

// Orchestrator wires every component named in spec.md §4 behind the
// single Search entrypoint.
type Orchestrator struct {
	Router            *router.Router
	Lexical           LexicalSearcher
	Vector            vector.Adapter
	EmbeddingProviders map[ragmodel.EmbeddingProviderName]embedding.Provider
	Expander          *expansion.Expander // nil disables HyDE/multi-query regardless of flags
	Reranker          *rerank.Reranker
	ChunkExpander     *expand.Expander
	Compressor        *compress.Compressor
	Gate              *crag.Gate

	Flags Flags
}

func boolOr(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}

func (o *Orchestrator) deadline() time.Duration {
	if o.Flags.RequestDeadline <= 0 {
		return 30 * time.Second
	}
	return o.Flags.RequestDeadline
}

func validate(req ragmodel.SearchRequest) error {
	if len(req.Query) == 0 || len(req.Query) > 10000 {
		return ragerr.New(ragerr.InvalidInput, "search: query must be 1..10000 chars")
	}
	if req.TenantID == "" {
		return ragerr.New(ragerr.InvalidInput, "search: tenant_id is required")
	}
	if req.TopK < 0 || req.TopK > 100 {
		return ragerr.New(ragerr.InvalidInput, fmt.Sprintf("search: top_k must be 0..100, got %d", req.TopK))
	}
	return nil
}

func scopeFilterFor(req ragmodel.SearchRequest) lexical.ScopeFilter {
	return lexical.ScopeFilter{TenantID: req.TenantID, CaseID: req.CaseID, GroupIDs: req.GroupIDs, UserID: req.UserID}
}

func vectorFilterFor(req ragmodel.SearchRequest) vector.Filter {
	return vector.Filter{TenantID: req.TenantID, CaseID: req.CaseID, GroupIDs: req.GroupIDs, UserID: req.UserID}
}

// Search drives the full state machine for one request.
func (o *Orchestrator) Search(ctx context.Context, req ragmodel.SearchRequest) (*ragmodel.SearchResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	topK := req.TopK
	if topK == 0 {
		topK = 10
	}

	ctx, cancel := context.WithTimeout(ctx, o.deadline())
	defer cancel()

	trace := ragmodel.NewTrace(traceRequestID(req), time.Now())
	started := time.Now()

	useHyde := boolOr(req.UseHyde, o.Flags.EnableHyde) && o.Expander != nil
	useMultiQuery := boolOr(req.UseMultiQuery, o.Flags.EnableMultiQuery) && o.Expander != nil
	useCRAG := boolOr(req.UseCRAG, o.Flags.EnableCRAG) && o.Gate != nil
	useRerank := boolOr(req.UseRerank, o.Flags.EnableRerank) && o.Reranker != nil
	useCompression := boolOr(req.UseCompression, o.Flags.EnableCompression) && o.Compressor != nil
	useChunkExpansion := boolOr(req.UseExpansion, o.Flags.EnableChunkExpansion) && o.ChunkExpander != nil

	// ROUTE
	routeStart := time.Now()
	route := o.Router.Route(ctx, req.Query, req.JurisdictionHint)
	trace.Append(ragmodel.Event{Stage: "route", TimestampNS: routeStart.Sub(started).Nanoseconds(), DurationNS: time.Since(routeStart).Nanoseconds(),
		Counts: map[string]int{"confidence_pct": int(route.Decision.Confidence * 100)}})

	// EXPAND (HyDE only affects the vector-search text; lexical always
	// uses the original query per spec.md §4.F)
	vectorQueryText := req.Query
	if useHyde {
		expandStart := time.Now()
		augmented, err := o.Expander.HyDE(ctx, req.Query)
		degraded := err != nil
		if err == nil {
			vectorQueryText = augmented
		}
		trace.Append(ragmodel.Event{Stage: "expand_hyde", TimestampNS: expandStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(expandStart).Nanoseconds(), Degraded: degraded})
	} else {
		trace.Append(ragmodel.Event{Stage: "expand_hyde", Skipped: true})
	}

	queryVariants := []string{req.Query}
	if useMultiQuery {
		mqStart := time.Now()
		variants, err := o.Expander.MultiQuery(ctx, req.Query)
		degraded := err != nil
		if err == nil {
			queryVariants = append(queryVariants, variants...)
		}
		trace.Append(ragmodel.Event{Stage: "expand_multiquery", TimestampNS: mqStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(mqStart).Nanoseconds(), Degraded: degraded, Counts: map[string]int{"variants": len(queryVariants) - 1}})
	} else {
		trace.Append(ragmodel.Event{Stage: "expand_multiquery", Skipped: true})
	}

	chunkByID := map[string]*ragmodel.Chunk{}
	degraded := false
	collectionsSearched := map[string]bool{}

	var fused ragmodel.RankedList
	retriesUsed := 0
	maxRetries := o.Flags.CRAGMaxRetries
	if maxRetries <= 0 && o.Gate != nil {
		maxRetries = o.Gate.MaxRetries
	}

	for {
		fanOutStart := time.Now()
		lists, fanOutDegraded, err := o.fanOut(ctx, req, route, queryVariants, vectorQueryText, chunkByID, collectionsSearched)
		if err != nil {
			trace.Append(ragmodel.Event{Stage: "fan_out", TimestampNS: fanOutStart.Sub(started).Nanoseconds(),
				DurationNS: time.Since(fanOutStart).Nanoseconds(), Error: err.Error()})
			trace.Finalize()
			return nil, err
		}
		degraded = degraded || fanOutDegraded
		fanOutCounts := map[string]int{"lists": len(lists)}
		for c := range collectionsSearched {
			fanOutCounts["collection:"+c] = 1
		}
		trace.Append(ragmodel.Event{Stage: "fan_out", TimestampNS: fanOutStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(fanOutStart).Nanoseconds(), Degraded: fanOutDegraded,
			Counts: fanOutCounts})

		fuseStart := time.Now()
		fused = fusion.RRF(lists, o.Flags.RRFK, chunkByID)
		trace.Append(ragmodel.Event{Stage: "fuse", TimestampNS: fuseStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(fuseStart).Nanoseconds(), Counts: map[string]int{"items": len(fused)}})

		if !useCRAG {
			break
		}

		gateStart := time.Now()
		decision := o.Gate.Evaluate(fused, retriesUsed)
		trace.Append(ragmodel.Event{Stage: "gate", TimestampNS: gateStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(gateStart).Nanoseconds(),
			Counts: map[string]int{
				"best_score_pct": int(decision.BestScore * 100),
				"retries_left":   decision.RetriesLeft,
				"level_" + strings.ToLower(string(decision.Level)): 1,
			}})

		if decision.Outcome == crag.OutcomePass {
			break
		}
		if decision.Outcome == crag.OutcomeAmbiguous && decision.RetriesLeft > 0 && retriesUsed < maxRetries {
			retriesUsed++
			if o.Expander != nil {
				if variants, err := o.Expander.MultiQuery(ctx, req.Query); err == nil && len(variants) > 0 {
					queryVariants = append(queryVariants, variants[0])
				}
			}
			continue
		}
		break
	}

	// RERANK
	if useRerank {
		rerankStart := time.Now()
		reranked, ran := o.Reranker.Rerank(req.Query, fused, o.Flags.RerankTopK)
		fused = reranked
		trace.Append(ragmodel.Event{Stage: "rerank", TimestampNS: rerankStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(rerankStart).Nanoseconds(), Skipped: !ran})
	} else {
		trace.Append(ragmodel.Event{Stage: "rerank", Skipped: true})
	}

	// EXPAND_NBRS
	if useChunkExpansion {
		expandStart := time.Now()
		expanded, err := o.ChunkExpander.Expand(ctx, fused)
		if err == nil {
			fused = expanded
		}
		trace.Append(ragmodel.Event{Stage: "expand_neighbors", TimestampNS: expandStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(expandStart).Nanoseconds(), Degraded: err != nil})
	} else {
		trace.Append(ragmodel.Event{Stage: "expand_neighbors", Skipped: true})
	}

	// COMPRESS
	if useCompression {
		compressStart := time.Now()
		budget := o.Flags.CompressionBudget
		if budget <= 0 {
			budget = 4000
		}
		compressed, results := o.Compressor.Compress(req.Query, fused, budget)
		fused = compressed
		origChars, compChars := 0, 0
		for _, r := range results {
			origChars += r.OriginalChars
			compChars += r.CompressedChars
		}
		trace.Append(ragmodel.Event{Stage: "compress", TimestampNS: compressStart.Sub(started).Nanoseconds(),
			DurationNS: time.Since(compressStart).Nanoseconds(),
			Counts: map[string]int{"original_chars": origChars, "compressed_chars": compChars}})
	} else {
		trace.Append(ragmodel.Event{Stage: "compress", Skipped: true})
	}

	trace.Finalize()

	results := make([]ragmodel.SearchResultItem, 0, topK)
	for i, item := range fused {
		if i >= topK {
			break
		}
		r := ragmodel.SearchResultItem{ChunkID: item.ChunkID, Score: item.Score}
		if item.Chunk != nil {
			r.Text = item.Chunk.Text
			r.Metadata = item.Chunk.Metadata
			r.SourceCollection = item.Chunk.SourceCollection
		}
		results = append(results, r)
	}

	resp := &ragmodel.SearchResponse{
		Results:             results,
		ProcessingTimeMS:    float64(time.Since(started).Microseconds()) / 1000.0,
		CollectionsSearched: collectionNames(collectionsSearched),
		Degraded:            degraded,
	}
	if req.IncludeRoutingInfo {
		resp.Routing = &route
	}
	if req.IncludeTrace {
		resp.Trace = trace
	}
	return resp, nil
}

func collectionNames(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	return out
}

func traceRequestID(req ragmodel.SearchRequest) string {
	return lrucache.KeyHash(req.TenantID + "|" + req.Query)
}
