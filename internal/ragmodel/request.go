package ragmodel

// SearchRequest is the structured search request of spec.md §6.
type SearchRequest struct {
	Query              string
	TenantID           string
	CaseID             string
	GroupIDs           []string
	UserID             string
	Datasets           []string // empty: the routed primary collection, plus its legacy collections when IncludeLegacy is set
	TopK               int      // 1..100, default 10
	IncludeGlobal      bool
	IncludePrivate     bool
	IncludeGroup       bool
	IncludeLocal       bool
	JurisdictionHint   Jurisdiction
	LanguageHint       string
	IncludeLegacy      bool // zero value false: legacy collections are searched only when set

	// Feature overrides: nil means "not overridden", falls through to
	// environment configuration then built-in default (spec.md §4.L).
	UseHyde          *bool
	UseMultiQuery    *bool
	UseCRAG          *bool
	UseRerank        *bool
	UseCompression   *bool
	UseExpansion     *bool
	UseGraphEnrich   *bool
	IncludeRoutingInfo bool
	IncludeTrace       bool
}

// SearchResultItem is one entry of SearchResponse.Results.
type SearchResultItem struct {
	ChunkID          string
	Text             string
	Score            float64
	Metadata         ChunkMetadata
	SourceCollection string
}

// SearchResponse is the structured search response of spec.md §6.
type SearchResponse struct {
	Results            []SearchResultItem
	Routing            *EmbeddingRoute
	ProcessingTimeMS   float64
	CollectionsSearched []string
	Trace              *Trace
	Degraded           bool
}

// IngestRequest is the structured ingest request of spec.md §6.
type IngestRequest struct {
	Text             string
	TenantID         string
	CaseID           string
	Metadata         map[string]any
	JurisdictionHint Jurisdiction
	LanguageHint     string
	ChunkSize        int // 100..2000, default 512
	ChunkOverlap     int // 0..500, default 50
}

// IngestResponse is the structured ingest response of spec.md §6.
type IngestResponse struct {
	IndexedCount     int
	Collection       string
	Routing          *EmbeddingRoute
	SkipRAG          bool
	SkipReason       string
	ProcessingTimeMS float64
}
