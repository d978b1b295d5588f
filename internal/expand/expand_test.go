package expand

import (
	"context"
	"testing"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

type fakeFetcher struct {
	chunks map[string]*ragmodel.Chunk
}

func (f *fakeFetcher) FetchNeighbor(ctx context.Context, docID string, position int) (*ragmodel.Chunk, error) {
	key := docID + ":" + itoa(position)
	if c, ok := f.chunks[key]; ok {
		return c, nil
	}
	return nil, nil
}

func itoa(n int) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}

func chunk(doc string, pos int) *ragmodel.Chunk {
	return &ragmodel.Chunk{ID: doc + "-" + itoa(pos), DocID: doc, Position: pos, Text: "text"}
}

func TestExpandFetchesNeighborsEachSide(t *testing.T) {
	fetcher := &fakeFetcher{chunks: map[string]*ragmodel.Chunk{
		"d1:4": chunk("d1", 4),
		"d1:6": chunk("d1", 6),
	}}
	e := New(fetcher, 1, 12)

	ranking := ragmodel.RankedList{{ChunkID: "d1-5", Score: 1, Chunk: chunk("d1", 5)}}
	out, err := e.Expand(context.Background(), ranking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected original + 2 neighbors = 3 items, got %d", len(out))
	}
	if out[0].ChunkID != "d1-5" {
		t.Fatalf("expected original item preserved in rank slot 0, got %s", out[0].ChunkID)
	}
}

func TestExpandDeduplicatesAgainstExistingRanking(t *testing.T) {
	fetcher := &fakeFetcher{chunks: map[string]*ragmodel.Chunk{
		"d1:6": chunk("d1", 6),
	}}
	e := New(fetcher, 1, 12)

	ranking := ragmodel.RankedList{
		{ChunkID: "d1-5", Score: 2, Chunk: chunk("d1", 5)},
		{ChunkID: "d1-4", Score: 1, Chunk: chunk("d1", 4)},
	}
	out, err := e.Expand(context.Background(), ranking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// d1-4 already present, so only d1-6 (neighbor of d1-5) should be fetched.
	if len(out) != 3 {
		t.Fatalf("expected 3 items (2 original + 1 new neighbor), got %d: %+v", len(out), out)
	}
}

func TestExpandCapsAtMaxExtra(t *testing.T) {
	chunks := map[string]*ragmodel.Chunk{}
	ranking := ragmodel.RankedList{}
	for i := 0; i < 10; i++ {
		pos := i * 10
		ranking = append(ranking, ragmodel.RankedItem{ChunkID: "d1-c", Score: float64(10 - i), Chunk: chunk("d1", pos)})
		chunks["d1:"+itoa(pos-1)] = chunk("d1", pos-1)
		chunks["d1:"+itoa(pos+1)] = chunk("d1", pos+1)
	}
	fetcher := &fakeFetcher{chunks: chunks}
	e := New(fetcher, 1, 5)

	out, err := e.Expand(context.Background(), ranking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	extra := len(out) - len(ranking)
	if extra > 5 {
		t.Fatalf("expected at most 5 extra chunks, got %d", extra)
	}
}

func TestExpandNoFetcherIsNoOp(t *testing.T) {
	e := New(nil, 1, 12)
	ranking := ragmodel.RankedList{{ChunkID: "a", Score: 1}}
	out, err := e.Expand(context.Background(), ranking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected unchanged ranking, got %d items", len(out))
	}
}
