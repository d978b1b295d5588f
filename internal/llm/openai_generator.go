package llm

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// openAIGenerator wraps openai-go/v2's Chat Completions endpoint for
// the router's LLM classification layer and query-expansion prompts.
type openAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator builds a Generator backed by OpenAI chat completions.
// baseURL overrides the endpoint when set, for test doubles.
func NewOpenAIGenerator(apiKey, baseURL, model string) Generator {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAIGenerator{client: openai.NewClient(opts...), model: model}
}

func (g *openAIGenerator) Name() string { return "openai" }

func (g *openAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	comp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &NetworkError{Provider: "openai", Cause: err}
	}
	if len(comp.Choices) == 0 {
		return "", &EmptyResponseError{Provider: "openai"}
	}
	return comp.Choices[0].Message.Content, nil
}
