package llm

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens int64 = 1024

type anthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator builds a Generator backed by Anthropic Messages.
func NewAnthropicGenerator(apiKey, baseURL, model string) Generator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &anthropicGenerator{client: anthropic.NewClient(opts...), model: model}
}

func (g *anthropicGenerator) Name() string { return "anthropic" }

func (g *anthropicGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	mt := defaultMaxTokens
	if maxTokens > 0 {
		mt = int64(maxTokens)
	}

	params := anthropic.MessageNewParams{
		Model: anthropic.Model(g.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
		MaxTokens: mt,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", &NetworkError{Provider: "anthropic", Cause: err}
	}
	if len(resp.Content) == 0 {
		return "", &EmptyResponseError{Provider: "anthropic"}
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if b.Len() == 0 {
		return "", &EmptyResponseError{Provider: "anthropic"}
	}
	return b.String(), nil
}
