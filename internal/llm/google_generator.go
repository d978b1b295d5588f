package llm

import (
	"context"
	"net/http"
	"strings"

	genai "google.golang.org/genai"
)

type googleGenerator struct {
	client *genai.Client
	model  string
}

// NewGoogleGenerator builds a Generator backed by google.golang.org/genai
// (Gemini), used as an alternate classification/expansion LLM.
func NewGoogleGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
	})
	if err != nil {
		return nil, &NetworkError{Provider: "google", Cause: err}
	}
	return &googleGenerator{client: client, model: model}, nil
}

func (g *googleGenerator) Name() string { return "google" }

func (g *googleGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	prompt := userPrompt
	if systemPrompt != "" {
		prompt = systemPrompt + "\n\n" + userPrompt
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	cfg := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", &NetworkError{Provider: "google", Cause: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &EmptyResponseError{Provider: "google"}
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", &EmptyResponseError{Provider: "google"}
	}
	return b.String(), nil
}
