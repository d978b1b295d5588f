package llm

import "context"

// RegistryConfig carries the endpoint/credential overrides needed to
// build generators for the router's LLM layer and query expansion.
type RegistryConfig struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	GoogleAPIKey    string
	GoogleModel     string
}

// NewRegistry builds the generator set. Google client construction can
// fail (it dials out during NewClient); that error is returned together
// with the OpenAI and Anthropic generators already built, so callers can
// log it and fall back to those.
func NewRegistry(ctx context.Context, cfg RegistryConfig) (map[string]Generator, error) {
	reg := map[string]Generator{
		"openai":    NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		"anthropic": NewAnthropicGenerator(cfg.AnthropicAPIKey, "", cfg.AnthropicModel),
	}
	if cfg.GoogleAPIKey != "" {
		g, err := NewGoogleGenerator(ctx, cfg.GoogleAPIKey, cfg.GoogleModel)
		if err != nil {
			return reg, err
		}
		reg["google"] = g
	}
	return reg, nil
}
