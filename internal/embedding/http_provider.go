package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// httpProvider is the shared shape for embedding families fronted by a
// simple JSON HTTP API (Voyage, Kanon2, JurisBERT) — no first-party Go
// SDKs exist for these in the pack, so the request/response plumbing
// follows the teacher's OllamaEmbedRequest/Response idiom
// (legal-gateway/worker.go's generateEmbedding) rather than inventing a
// new client shape.
type httpProvider struct {
	name         string
	baseURL      string
	model        string
	apiKey       string
	dims         int
	maxBatch     int
	defaultTypes []InputType
	httpClient   *http.Client
	logger       *zap.Logger

	// buildRequest/parseResponse let each family speak its own wire
	// dialect while sharing retry/batching/logging plumbing.
	buildRequest  func(texts []string, model string, inputType InputType) any
	parseResponse func(body []byte) ([]Vector, error)
}

func (p *httpProvider) Name() string                     { return p.name }
func (p *httpProvider) Dimensions() int                  { return p.dims }
func (p *httpProvider) DefaultInputTypes() []InputType   { return p.defaultTypes }
func (p *httpProvider) MaxBatchSize() int                { return p.maxBatch }

func (p *httpProvider) EmbedBatch(ctx context.Context, texts []string, inputType InputType) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batches := splitBatches(texts, p.maxBatch)
	out := make([]Vector, 0, len(texts))

	for _, batch := range batches {
		// Zero-length texts never hit the wire: they yield a zero vector.
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
				return p.embedOnce(ctx, nonEmpty, inputType)
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

func (p *httpProvider) embedOnce(ctx context.Context, texts []string, inputType InputType) ([]Vector, error) {
	body := p.buildRequest(texts, p.model, inputType)
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &QuotaError{Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Cause: fmt.Errorf("%s embedding API error: status %d: %s", p.name, resp.StatusCode, string(respBody))}
	}

	vecs, err := p.parseResponse(respBody)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	if len(vecs) == 0 {
		return nil, &EmptyResponseError{Cause: fmt.Errorf("%s returned zero vectors", p.name)}
	}
	if p.logger != nil {
		p.logger.Debug("embedded batch", zap.String("provider", p.name), zap.Int("count", len(vecs)))
	}
	return vecs, nil
}

// --- Voyage ----------------------------------------------------------

type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewVoyageV4 builds the BR-default embedding provider: Voyage 4 large,
// 1024 dimensions (spec.md §4.D).
func NewVoyageV4(baseURL, apiKey string, logger *zap.Logger) Provider {
	return newVoyage("voyage_v4", "voyage-4-large", 1024, baseURL, apiKey, logger)
}

// NewVoyageLaw builds the EU-default embedding provider: Voyage law-2,
// 1024 dimensions.
func NewVoyageLaw(baseURL, apiKey string, logger *zap.Logger) Provider {
	return newVoyage("voyage_law", "voyage-law-2", 1024, baseURL, apiKey, logger)
}

func newVoyage(name, model string, dims int, baseURL, apiKey string, logger *zap.Logger) Provider {
	if baseURL == "" {
		baseURL = "https://api.voyageai.com/v1/embeddings"
	}
	return &httpProvider{
		name: name, baseURL: baseURL, model: model, apiKey: apiKey, dims: dims,
		maxBatch:     128,
		defaultTypes: []InputType{InputDocument, InputQuery},
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		buildRequest: func(texts []string, model string, inputType InputType) any {
			return voyageRequest{Input: texts, Model: model, InputType: string(inputType)}
		},
		parseResponse: func(body []byte) ([]Vector, error) {
			var r voyageResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return nil, err
			}
			out := make([]Vector, len(r.Data))
			for i, d := range r.Data {
				out[i] = d.Embedding
			}
			return out, nil
		},
	}
}

// --- Kanon2 (Isaacus API) ---------------------------------------------

type kanon2Request struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
	Task  string   `json:"task"`
}

type kanon2Response struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewKanon2 builds the US/UK/INT-default embedding provider: Kanon 2,
// 1024 dimensions.
func NewKanon2(baseURL, apiKey string, logger *zap.Logger) Provider {
	if baseURL == "" {
		baseURL = "https://api.isaacus.com/v1/embeddings"
	}
	return &httpProvider{
		name: "kanon2", baseURL: baseURL, model: "kanon-2-embedder", apiKey: apiKey, dims: 1024,
		maxBatch:     96,
		defaultTypes: []InputType{InputDocument, InputQuery},
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		buildRequest: func(texts []string, model string, inputType InputType) any {
			task := "retrieval/document"
			if inputType == InputQuery {
				task = "retrieval/query"
			}
			return kanon2Request{Texts: texts, Model: model, Task: task}
		},
		parseResponse: func(body []byte) ([]Vector, error) {
			var r kanon2Response
			if err := json.Unmarshal(body, &r); err != nil {
				return nil, err
			}
			out := make([]Vector, len(r.Embeddings))
			for i, e := range r.Embeddings {
				out[i] = e
			}
			return out, nil
		},
	}
}

// --- JurisBERT (legacy BR collection) ---------------------------------

type jurisbertRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type jurisbertResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewJurisBERT builds the legacy BR embedding provider, 768 dimensions.
// Kept only for the "legal_br" legacy collection (spec.md §6
// include_legacy / §4.D migrate_collection).
func NewJurisBERT(baseURL string, logger *zap.Logger) Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api/embed"
	}
	return &httpProvider{
		name: "jurisbert", baseURL: baseURL, model: "jurisbert", dims: 768,
		maxBatch:     64,
		defaultTypes: []InputType{InputDocument, InputQuery},
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		buildRequest: func(texts []string, model string, inputType InputType) any {
			return jurisbertRequest{Model: model, Input: texts}
		},
		parseResponse: func(body []byte) ([]Vector, error) {
			var r jurisbertResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return nil, err
			}
			out := make([]Vector, len(r.Embeddings))
			for i, e := range r.Embeddings {
				out[i] = e
			}
			return out, nil
		},
	}
}
