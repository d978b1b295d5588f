// Package config reads the process environment once at startup into an
// immutable Config (spec.md §6 "Configuration"). Reload is out of
// scope, matching the teacher's getEnv(key, default) idiom
// (go-enhanced-rag-service/main.go, document-chunker/main.go) and
// iudex_mvp_fast/app/settings.py's RAGPipelineConfig.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the fully-resolved runtime configuration for one process.
type Config struct {
	// Feature flags (spec.md §4.L precedence: per-request > env > default)
	EnableCRAG           bool
	EnableHyDE           bool
	EnableMultiQuery     bool
	EnableRerank         bool
	EnableCompression    bool
	EnableGraphEnrich    bool
	EnableTracing        bool
	EnableChunkExpansion bool

	// CRAG gate thresholds (§4.K)
	CRAGMinBestScore float64
	CRAGMinAvgScore  float64
	CRAGMaxRetries   int

	// HyDE / multi-query (§4.F)
	HydeModel      string
	HydeMaxTokens  int
	MultiQueryMax  int

	// Reranker (§4.H)
	RerankModel    string
	RerankTopK     int
	RerankMaxChars int

	// Compressor (§4.J)
	CompressionMaxChars int
	CompressionMinChars int

	// Chunk expander (§4.I)
	ChunkExpansionWindow   int
	ChunkExpansionMaxExtra int

	// Fusion (§4.G)
	RRFK           int
	LexicalWeight  float64
	VectorWeight   float64

	// Router overrides, keyed by jurisdiction string (§4.D)
	RouterProviderOverride   map[string]string
	RouterCollectionOverride map[string]string

	// TTL / skip-RAG thresholds
	SmartSkipRAGChars int
	LocalTTLDays      int

	// Request-level deadline (spec.md §5)
	RequestDeadlineSeconds int
}

func envBool(name string, def bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envInt(name string, def int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func envFloat(name string, def float64) float64 {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def
	}
	return v
}

func envString(name, def string) string {
	if raw, ok := os.LookupEnv(name); ok && raw != "" {
		return raw
	}
	return def
}

// Jurisdictions the router overrides are scanned for.
var knownJurisdictions = []string{"BR", "US", "UK", "EU", "INT", "GENERAL"}

// Load reads Config from the process environment. Call once at startup.
func Load() *Config {
	providerOverride := map[string]string{}
	collectionOverride := map[string]string{}
	for _, j := range knownJurisdictions {
		if v := os.Getenv("RAG_ROUTER_" + j + "_PROVIDER"); v != "" {
			providerOverride[j] = v
		}
		if v := os.Getenv("RAG_ROUTER_" + j + "_COLLECTION"); v != "" {
			collectionOverride[j] = v
		}
	}

	return &Config{
		EnableCRAG:           envBool("RAG_ENABLE_CRAG", true),
		EnableHyDE:           envBool("RAG_ENABLE_HYDE", true),
		EnableMultiQuery:     envBool("RAG_ENABLE_MULTIQUERY", true),
		EnableRerank:         envBool("RAG_ENABLE_RERANK", true),
		EnableCompression:    envBool("RAG_ENABLE_COMPRESSION", true),
		EnableGraphEnrich:    envBool("RAG_ENABLE_GRAPH_ENRICH", true),
		EnableTracing:        envBool("RAG_ENABLE_TRACING", true),
		EnableChunkExpansion: envBool("RAG_ENABLE_CHUNK_EXPANSION", true),

		CRAGMinBestScore: envFloat("RAG_CRAG_MIN_BEST_SCORE", 0.5),
		CRAGMinAvgScore:  envFloat("RAG_CRAG_MIN_AVG_SCORE", 0.35),
		CRAGMaxRetries:   envInt("RAG_CRAG_MAX_RETRIES", 2),

		HydeModel:     envString("RAG_HYDE_MODEL", "gemini-2.0-flash"),
		HydeMaxTokens: envInt("RAG_HYDE_MAX_TOKENS", 300),
		MultiQueryMax: envInt("RAG_MULTIQUERY_MAX", 3),

		RerankModel:    envString("RAG_RERANK_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
		RerankTopK:     envInt("RAG_RERANK_TOP_K", 10),
		RerankMaxChars: envInt("RAG_RERANK_MAX_CHARS", 1800),

		CompressionMaxChars: envInt("RAG_COMPRESSION_MAX_CHARS", 900),
		CompressionMinChars: envInt("RAG_COMPRESSION_MIN_CHARS", 100),

		ChunkExpansionWindow:   envInt("RAG_CHUNK_EXPANSION_WINDOW", 1),
		ChunkExpansionMaxExtra: envInt("RAG_CHUNK_EXPANSION_MAX_EXTRA", 12),

		RRFK:          envInt("RAG_RRF_K", 60),
		LexicalWeight: envFloat("RAG_LEXICAL_WEIGHT", 0.5),
		VectorWeight:  envFloat("RAG_VECTOR_WEIGHT", 0.5),

		RouterProviderOverride:   providerOverride,
		RouterCollectionOverride: collectionOverride,

		SmartSkipRAGChars: envInt("SMART_SKIP_RAG_CHARS", 400000),
		LocalTTLDays:      envInt("LOCAL_TTL_DAYS", 7),

		RequestDeadlineSeconds: envInt("RAG_REQUEST_DEADLINE_SECONDS", 30),
	}
}

// Default returns a Config populated entirely with built-in defaults,
// ignoring the environment. Useful for tests.
func Default() *Config {
	return &Config{
		EnableCRAG: true, EnableHyDE: true, EnableMultiQuery: true,
		EnableRerank: true, EnableCompression: true, EnableGraphEnrich: true,
		EnableTracing: true, EnableChunkExpansion: true,
		CRAGMinBestScore: 0.5, CRAGMinAvgScore: 0.35, CRAGMaxRetries: 2,
		HydeModel: "gemini-2.0-flash", HydeMaxTokens: 300, MultiQueryMax: 3,
		RerankModel: "cross-encoder/ms-marco-MiniLM-L-6-v2", RerankTopK: 10, RerankMaxChars: 1800,
		CompressionMaxChars: 900, CompressionMinChars: 100,
		ChunkExpansionWindow: 1, ChunkExpansionMaxExtra: 12,
		RRFK: 60, LexicalWeight: 0.5, VectorWeight: 0.5,
		RouterProviderOverride:   map[string]string{},
		RouterCollectionOverride: map[string]string{},
		SmartSkipRAGChars:        400000,
		LocalTTLDays:             7,
		RequestDeadlineSeconds:   30,
	}
}
