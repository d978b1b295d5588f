package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

var errTest = errors.New("embedding provider unavailable")

// fakeAdapter is an in-memory Adapter double for exercising
// MigrateCollection without a live Qdrant/Postgres instance.
type fakeAdapter struct {
	collections map[string]int
	points      map[string]map[string]fakePoint
}

type fakePoint struct {
	vec  []float32
	meta ragmodel.ChunkMetadata
	text string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{collections: map[string]int{}, points: map[string]map[string]fakePoint{}}
}

func (f *fakeAdapter) EnsureCollection(ctx context.Context, collection string, dims int) error {
	f.collections[collection] = dims
	if f.points[collection] == nil {
		f.points[collection] = map[string]fakePoint{}
	}
	return nil
}

func (f *fakeAdapter) Upsert(ctx context.Context, collection, id string, vec []float32, chunk ragmodel.Chunk) error {
	f.points[collection][id] = fakePoint{vec: vec, meta: chunk.Metadata, text: chunk.Text}
	return nil
}

func (f *fakeAdapter) Search(ctx context.Context, collection string, vec []float32, filter Filter, topK int) ([]Hit, error) {
	return nil, nil
}

func (f *fakeAdapter) Scroll(ctx context.Context, collection string, filter Filter, batchSize int, cursor string) (ScrollPage, error) {
	var hits []Hit
	for id, p := range f.points[collection] {
		hits = append(hits, Hit{ChunkID: id, Metadata: p.meta, Text: p.text})
	}
	return ScrollPage{Hits: hits, Done: true}, nil
}

func (f *fakeAdapter) SetPayload(ctx context.Context, collection, id string, patch map[string]any) error {
	return nil
}

func (f *fakeAdapter) DeleteWhere(ctx context.Context, collection string, ids []string) error {
	for _, id := range ids {
		delete(f.points[collection], id)
	}
	return nil
}

func TestMigrateCollectionCopiesAllPoints(t *testing.T) {
	from := newFakeAdapter()
	to := newFakeAdapter()
	_ = from.EnsureCollection(context.Background(), "legal_br_legacy", 768)
	_ = from.Upsert(context.Background(), "legal_br_legacy", "c1", make([]float32, 768), ragmodel.Chunk{Text: "artigo um"})
	_ = from.Upsert(context.Background(), "legal_br_legacy", "c2", make([]float32, 768), ragmodel.Chunk{Text: "artigo dois"})

	reembed := func(ctx context.Context, text string) ([]float32, error) {
		return make([]float32, 1024), nil
	}

	n, err := MigrateCollection(context.Background(), from, to, "legal_br_legacy", "legal_br_v4", 1024, 10, nil, reembed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 migrated points, got %d", n)
	}
	if len(to.points["legal_br_v4"]) != 2 {
		t.Fatalf("expected 2 points in destination collection, got %d", len(to.points["legal_br_v4"]))
	}
}

func TestMigrateCollectionSkipsFailedReembeds(t *testing.T) {
	from := newFakeAdapter()
	to := newFakeAdapter()
	_ = from.EnsureCollection(context.Background(), "legal_br_legacy", 768)
	_ = from.Upsert(context.Background(), "legal_br_legacy", "c1", make([]float32, 768), ragmodel.Chunk{Text: "bad"})

	reembed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errTest
	}

	n, err := MigrateCollection(context.Background(), from, to, "legal_br_legacy", "legal_br_v4", 1024, 10, nil, reembed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 migrated points when re-embed fails, got %d", n)
	}
}
