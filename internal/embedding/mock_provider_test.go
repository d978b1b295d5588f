package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockProviderDeterministic(t *testing.T) {
	p := NewMock("mock", 32)
	ctx := context.Background()

	v1, err := p.EmbedBatch(ctx, []string{"contract dispute in court"}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := p.EmbedBatch(ctx, []string{"contract dispute in court"}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range v1[0] {
		if v1[0][i] != v2[0][i] {
			t.Fatalf("expected deterministic embedding, differed at index %d", i)
		}
	}
}

func TestMockProviderNormalized(t *testing.T) {
	p := NewMock("mock", 16)
	vecs, err := p.EmbedBatch(context.Background(), []string{"some legal text about a case"}, InputQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var mag float64
	for _, f := range vecs[0] {
		mag += float64(f) * float64(f)
	}
	mag = math.Sqrt(mag)
	if mag < 0.99 || mag > 1.01 {
		t.Fatalf("expected unit-normalized vector, got magnitude %v", mag)
	}
}

func TestMockProviderZeroLengthTextYieldsZeroVector(t *testing.T) {
	p := NewMock("mock", 8)
	vecs, err := p.EmbedBatch(context.Background(), []string{""}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range vecs[0] {
		if f != 0 {
			t.Fatalf("expected zero vector for empty text, got %+v", vecs[0])
		}
	}
}

func TestMockProviderDifferentTextsDiffer(t *testing.T) {
	p := NewMock("mock", 32)
	vecs, err := p.EmbedBatch(context.Background(), []string{"contract law", "unrelated topic about gardening"}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different texts to produce different embeddings")
	}
}
