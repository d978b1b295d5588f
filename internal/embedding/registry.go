package embedding

import "go.uber.org/zap"

// RegistryConfig carries the endpoint/credential overrides needed to
// build providers. config.Config has no fields for them; the caller
// fills them in (cmd/rag-debug reads them from the environment).
type RegistryConfig struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	VoyageAPIKey   string
	VoyageBaseURL  string
	KanonAPIKey    string
	KanonBaseURL   string
	JurisBERTURL   string
}

// NewRegistry builds every embedding provider named by spec.md §4.D's
// jurisdiction table, keyed by EmbeddingProviderName.
func NewRegistry(cfg RegistryConfig, logger *zap.Logger) map[string]Provider {
	return map[string]Provider{
		"openai":     NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, logger),
		"voyage_v4":  NewVoyageV4(cfg.VoyageBaseURL, cfg.VoyageAPIKey, logger),
		"voyage_law": NewVoyageLaw(cfg.VoyageBaseURL, cfg.VoyageAPIKey, logger),
		"kanon2":     NewKanon2(cfg.KanonBaseURL, cfg.KanonAPIKey, logger),
		"jurisbert":  NewJurisBERT(cfg.JurisBERTURL, logger),
	}
}
