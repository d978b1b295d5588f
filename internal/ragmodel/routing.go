package ragmodel

// EmbeddingProviderName identifies one of the embedding provider
// families the router can dispatch to (spec.md §4.A/§4.D).
type EmbeddingProviderName string

const (
	ProviderJurisBERT     EmbeddingProviderName = "jurisbert"
	ProviderKanon2        EmbeddingProviderName = "kanon2"
	ProviderVoyageLaw     EmbeddingProviderName = "voyage_law"
	ProviderVoyageV4      EmbeddingProviderName = "voyage_v4"
	ProviderOpenAI        EmbeddingProviderName = "openai"
)

// RoutingMethod records which layer of the router produced a decision.
type RoutingMethod string

const (
	MethodUserHint      RoutingMethod = "user_hint"
	MethodHeuristic     RoutingMethod = "heuristic"
	MethodLLM           RoutingMethod = "llm"
	MethodFallback      RoutingMethod = "fallback"
	MethodFallbackError RoutingMethod = "fallback_error"
)

// RoutingDecision is the classification output of the Embedding Router,
// independent of which (provider, collection) it resolves to.
type RoutingDecision struct {
	Jurisdiction    Jurisdiction
	DocumentType    DocumentType
	Language        string
	Confidence      float64
	Method          RoutingMethod
	Reason          string
	SkipRAG         bool
	EstimatedPages  int
}

// EmbeddingRoute is a full routing result: provider + collection +
// dimensions + the decision that produced them. Invariant:
// Provider's declared dimensions must equal Dimensions, otherwise the
// route is rejected (DimensionMismatch, spec.md §3).
type EmbeddingRoute struct {
	Provider   EmbeddingProviderName
	Collection string
	Dimensions int
	Decision   RoutingDecision
}
