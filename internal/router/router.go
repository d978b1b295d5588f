// Package router implements the three-layer Embedding Router of
// spec.md §4.D: a sub-millisecond heuristic layer, an LLM classification
// layer for uncertain cases, and a deterministic fallback layer,
// resolving text to an (provider, collection) EmbeddingRoute. Grounded
// on original_source/apps/api/app/services/rag/embedding_router.py.
package router

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/semaj90/legal-rag-core/internal/llm"
	"github.com/semaj90/legal-rag-core/internal/lrucache"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// jurisdictionTable is the fixed jurisdiction → (provider, collection,
// dims) mapping of spec.md §4.D, overridable per-jurisdiction via
// config.Config.RouterProviderOverride/RouterCollectionOverride.
type route struct {
	Provider   ragmodel.EmbeddingProviderName
	Collection string
	Dimensions int
}

var jurisdictionTable = map[ragmodel.Jurisdiction]route{
	ragmodel.JurisdictionBR:      {ragmodel.ProviderVoyageV4, "legal_br_v4", 1024},
	ragmodel.JurisdictionUS:      {ragmodel.ProviderKanon2, "legal_international", 1024},
	ragmodel.JurisdictionUK:      {ragmodel.ProviderKanon2, "legal_international", 1024},
	ragmodel.JurisdictionINT:     {ragmodel.ProviderKanon2, "legal_international", 1024},
	ragmodel.JurisdictionEU:      {ragmodel.ProviderVoyageLaw, "legal_eu", 1024},
	ragmodel.JurisdictionGeneral: {ragmodel.ProviderOpenAI, "general", 3072},
}

// LegacyCollections lists the legacy (OpenAI 3072d) collections still
// searched when a request sets include_legacy=true (spec.md §9 open
// question 1), recovered from embedding_router.py's LEGACY_COLLECTIONS.
var LegacyCollections = map[ragmodel.Jurisdiction][]string{
	ragmodel.JurisdictionBR:      {"lei", "juris", "doutrina", "pecas_modelo", "local_chunks"},
	ragmodel.JurisdictionUS:      {"local_chunks"},
	ragmodel.JurisdictionUK:      {"local_chunks"},
	ragmodel.JurisdictionINT:     {"local_chunks"},
	ragmodel.JurisdictionEU:      {"local_chunks"},
	ragmodel.JurisdictionGeneral: {"lei", "juris", "doutrina", "pecas_modelo", "local_chunks"},
}

// UsageStats is a snapshot of the router's counters (spec.md §4.D
// "per-provider, per-jurisdiction, per-method usage counters").
type UsageStats struct {
	ByProvider     map[string]int
	ByJurisdiction map[string]int
	ByMethod       map[string]int
}

// Config carries the thresholds and overrides the Router needs,
// independent of internal/config to avoid an import cycle.
type Config struct {
	HeuristicThreshold float64 // default 0.8
	LLMThreshold       float64 // default 0.6
	HydeModel          string
	HydeMaxTokens      int
	ProviderOverride   map[string]ragmodel.EmbeddingProviderName
	CollectionOverride map[string]string
}

// Router classifies text and resolves it to an EmbeddingRoute.
type Router struct {
	cfg       Config
	llmGen    llm.Generator // layer-2 classifier; nil disables layer 2
	cache     *lrucache.TTLCache[ragmodel.RoutingDecision]

	mu              sync.Mutex
	usageByProvider map[string]int
	usageByJuris    map[string]int
	usageByMethod   map[string]int

	providerCounter   *prometheus.CounterVec
	jurisdictionCounter *prometheus.CounterVec
	methodCounter     *prometheus.CounterVec
}

// New builds a Router. llmGenerator may be nil to disable layer 2
// (every decision then resolves via heuristic or fallback).
func New(cfg Config, llmGenerator llm.Generator, cache *lrucache.TTLCache[ragmodel.RoutingDecision]) *Router {
	if cfg.HeuristicThreshold <= 0 {
		cfg.HeuristicThreshold = 0.8
	}
	if cfg.LLMThreshold <= 0 {
		cfg.LLMThreshold = 0.6
	}
	if cache == nil {
		cache = lrucache.New[ragmodel.RoutingDecision](lrucache.DefaultCapacity)
	}
	return &Router{
		cfg:             cfg,
		llmGen:          llmGenerator,
		cache:           cache,
		usageByProvider: map[string]int{},
		usageByJuris:    map[string]int{},
		usageByMethod:   map[string]int{},
		providerCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rag_router_provider_usage_total",
			Help: "Embedding router decisions by provider.",
		}, []string{"provider"}),
		jurisdictionCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rag_router_jurisdiction_usage_total",
			Help: "Embedding router decisions by jurisdiction.",
		}, []string{"jurisdiction"}),
		methodCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rag_router_method_usage_total",
			Help: "Embedding router decisions by method.",
		}, []string{"method"}),
	}
}

// Collectors returns the Prometheus collectors for registration by the
// process's metrics registry.
func (r *Router) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.providerCounter, r.jurisdictionCounter, r.methodCounter}
}

func (r *Router) recordUsage(route route, decision ragmodel.RoutingDecision) {
	r.mu.Lock()
	r.usageByProvider[string(route.Provider)]++
	r.usageByJuris[string(decision.Jurisdiction)]++
	r.usageByMethod[string(decision.Method)]++
	r.mu.Unlock()

	r.providerCounter.WithLabelValues(string(route.Provider)).Inc()
	r.jurisdictionCounter.WithLabelValues(string(decision.Jurisdiction)).Inc()
	r.methodCounter.WithLabelValues(string(decision.Method)).Inc()
}

// UsageStats returns a snapshot of the accumulated counters.
func (r *Router) UsageStats() UsageStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return UsageStats{
		ByProvider:     copyIntMap(r.usageByProvider),
		ByJurisdiction: copyIntMap(r.usageByJuris),
		ByMethod:       copyIntMap(r.usageByMethod),
	}
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r *Router) resolveRoute(jurisdiction ragmodel.Jurisdiction) route {
	base, ok := jurisdictionTable[jurisdiction]
	if !ok {
		base = jurisdictionTable[ragmodel.JurisdictionGeneral]
	}
	key := string(jurisdiction)
	if p, ok := r.cfg.ProviderOverride[key]; ok && p != "" {
		base.Provider = p
	}
	if c, ok := r.cfg.CollectionOverride[key]; ok && c != "" {
		base.Collection = c
	}
	return base
}

// skipRAGPolicy implements spec.md §4.D's skip_rag advisory: small
// documents may bypass ingestion entirely in favor of sending the whole
// text to an LLM.
func skipRAGPolicy(text string, maxChars int) (bool, int) {
	pages := estimatedPages(text)
	if maxChars <= 0 {
		maxChars = 400000
	}
	return len(text) < maxChars && pages < 100, pages
}

// Route classifies text and resolves it to a full EmbeddingRoute,
// running the heuristic layer first, then the LLM layer if uncertain,
// then the fallback layer. userHint, if non-empty, short-circuits
// straight to method=user_hint.
func (r *Router) Route(ctx context.Context, text string, userHint ragmodel.Jurisdiction) ragmodel.EmbeddingRoute {
	skip, pages := skipRAGPolicy(text, 400000)

	if userHint != "" {
		decision := ragmodel.RoutingDecision{
			Jurisdiction:   userHint,
			DocumentType:   detectDocumentType(text),
			Language:       "unknown",
			Confidence:     1.0,
			Method:         ragmodel.MethodUserHint,
			Reason:         "caller-supplied jurisdiction hint",
			SkipRAG:        skip,
			EstimatedPages: pages,
		}
		return r.finalize(decision)
	}

	heuristic := heuristicDecision(text)
	heuristic.SkipRAG, heuristic.EstimatedPages = skip, pages
	if heuristic.Confidence >= r.cfg.HeuristicThreshold {
		return r.finalize(heuristic)
	}

	if r.llmGen != nil {
		key := lrucache.KeyHash(truncate(text, 500))
		if cached, ok := r.cache.Get(key); ok {
			cached.SkipRAG, cached.EstimatedPages = skip, pages
			return r.finalize(cached)
		}
		llmDecision, err := classifyWithLLM(ctx, r.llmGen, text, r.cfg.HydeMaxTokens)
		if err == nil && llmDecision.Confidence >= r.cfg.LLMThreshold {
			llmDecision.SkipRAG, llmDecision.EstimatedPages = skip, pages
			r.cache.Set(key, llmDecision, 0)
			return r.finalize(llmDecision)
		}
	}

	return r.finalize(fallbackDecision(heuristic, skip, pages))
}

// fallbackDecision implements spec.md §4.D layer 3: use the heuristic's
// best guess if its jurisdiction confidence exceeds 0.3, else GENERAL.
func fallbackDecision(heuristic ragmodel.RoutingDecision, skip bool, pages int) ragmodel.RoutingDecision {
	d := heuristic
	d.Method = ragmodel.MethodFallback
	d.Reason = "heuristic and llm layers uncertain, falling back"
	d.SkipRAG, d.EstimatedPages = skip, pages
	if heuristic.Confidence <= 0.3 {
		d.Jurisdiction = ragmodel.JurisdictionGeneral
	}
	return d
}

func (r *Router) finalize(decision ragmodel.RoutingDecision) ragmodel.EmbeddingRoute {
	rt := r.resolveRoute(decision.Jurisdiction)
	r.recordUsage(rt, decision)
	return ragmodel.EmbeddingRoute{
		Provider:   rt.Provider,
		Collection: rt.Collection,
		Dimensions: rt.Dimensions,
		Decision:   decision,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
