package embedding

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

// openAIProvider wraps openai-go/v2's Embeddings endpoint. It is used for
// the "text-embedding-3-large" fallback family (spec.md §4.D, the
// general/unknown-jurisdiction default).
type openAIProvider struct {
	client   openai.Client
	model    string
	dims     int
	maxBatch int
	logger   *zap.Logger
}

// NewOpenAI builds the general-purpose fallback embedding provider.
// baseURL overrides the API endpoint when set (used by tests to point
// at an httptest.Server); production callers leave it empty.
func NewOpenAI(apiKey, baseURL string, logger *zap.Logger) Provider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIProvider{
		client:   openai.NewClient(opts...),
		model:    "text-embedding-3-large",
		dims:     3072,
		maxBatch: 2048,
		logger:   logger,
	}
}

func (p *openAIProvider) Name() string                   { return "openai" }
func (p *openAIProvider) Dimensions() int                { return p.dims }
func (p *openAIProvider) MaxBatchSize() int               { return p.maxBatch }
func (p *openAIProvider) DefaultInputTypes() []InputType {
	return []InputType{InputDocument, InputQuery}
}

func (p *openAIProvider) EmbedBatch(ctx context.Context, texts []string, inputType InputType) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batches := splitBatches(texts, p.maxBatch)
	out := make([]Vector, 0, len(texts))

	for _, batch := range batches {
		nonEmpty := make([]string, 0, len(batch))
		zeroIdx := make(map[int]bool)
		for i, t := range batch {
			if t == "" {
				zeroIdx[i] = true
			} else {
				nonEmpty = append(nonEmpty, t)
			}
		}

		var vecs []Vector
		if len(nonEmpty) > 0 {
			var err error
			vecs, err = withRetry(ctx, 3, func() ([]Vector, error) {
				return p.embedOnce(ctx, nonEmpty)
			})
			if err != nil {
				return nil, err
			}
		}

		merged := make([]Vector, len(batch))
		vi := 0
		for i := range batch {
			if zeroIdx[i] {
				merged[i] = zeroVector(p.dims)
			} else {
				merged[i] = vecs[vi]
				vi++
			}
		}
		out = append(out, merged...)
	}

	return out, nil
}

func (p *openAIProvider) embedOnce(ctx context.Context, texts []string) ([]Vector, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: p.model,
	})
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	if len(resp.Data) == 0 {
		return nil, &EmptyResponseError{Cause: err}
	}

	out := make([]Vector, len(resp.Data))
	for i, d := range resp.Data {
		v := make(Vector, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float32(f)
		}
		out[i] = v
	}
	if p.logger != nil {
		p.logger.Debug("embedded batch", zap.String("provider", "openai"), zap.Int("count", len(out)))
	}
	return out, nil
}
