package llm

import "context"

// MockGenerator returns a fixed or computed response, for tests that
// exercise HyDE/multi-query/CRAG reformulation without network access.
type MockGenerator struct {
	ProviderName string
	Fn           func(systemPrompt, userPrompt string) (string, error)
}

// NewMock builds a MockGenerator that echoes the prompt when Fn is nil.
func NewMock(name string) *MockGenerator {
	return &MockGenerator{ProviderName: name}
}

func (m *MockGenerator) Name() string { return m.ProviderName }

func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if m.Fn != nil {
		return m.Fn(systemPrompt, userPrompt)
	}
	return "mock response: " + userPrompt, nil
}
