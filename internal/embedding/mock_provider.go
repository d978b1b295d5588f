package embedding

import (
	"context"
	"math"
	"math/rand"
	"strings"
)

// legalBoostTerms mirrors the domain bias the teacher's mock CUDA
// gateway (cuda-mock-gateway/server.go) applies so fixtures embedding
// legal text score recognizably differently from generic text.
var legalBoostTerms = []string{
	"contract", "agreement", "legal", "court", "judge", "law", "case",
	"evidence", "plaintiff", "defendant", "artigo", "lei", "tribunal",
}

// MockProvider produces deterministic, normalized embeddings from a
// text hash — no network calls. Grounded on the teacher's
// generateDeterministicEmbedding (cuda-mock-gateway/server.go), used
// here for tests and local development rather than a standalone
// gateway process.
type MockProvider struct {
	ProviderName string
	Dims         int
	Batch        int
}

// NewMock builds a deterministic in-process provider for tests.
func NewMock(name string, dims int) *MockProvider {
	if dims <= 0 {
		dims = 256
	}
	return &MockProvider{ProviderName: name, Dims: dims, Batch: 256}
}

func (p *MockProvider) Name() string { return p.ProviderName }
func (p *MockProvider) Dimensions() int { return p.Dims }
func (p *MockProvider) MaxBatchSize() int {
	if p.Batch <= 0 {
		return 256
	}
	return p.Batch
}
func (p *MockProvider) DefaultInputTypes() []InputType {
	return []InputType{InputDocument, InputQuery}
}

func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string, inputType InputType) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		if t == "" {
			out[i] = zeroVector(p.Dims)
			continue
		}
		out[i] = deterministicEmbedding(t, p.Dims)
	}
	return out, nil
}

func deterministicEmbedding(text string, dims int) Vector {
	var seed int64
	for _, r := range text {
		seed += int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	lower := strings.ToLower(text)
	var boost float32
	for _, term := range legalBoostTerms {
		if strings.Contains(lower, term) {
			boost += 0.1
		}
	}

	v := make(Vector, dims)
	var magnitude float32
	for i := 0; i < dims; i++ {
		val := (rng.Float32()*2.0 - 1.0) * (1.0 + boost)
		v[i] = val
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))
	if magnitude > 0 {
		for i := range v {
			v[i] /= magnitude
		}
	}
	return v
}
