package fusion

import (
	"testing"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

func TestRRFDeterministicAndOrdered(t *testing.T) {
	lists := []List{
		{IDs: []string{"a", "b", "c"}, Weight: 1},
		{IDs: []string{"b", "a", "d"}, Weight: 1},
	}
	out := RRF(lists, 60, nil)
	if !out.IsStrictlyOrdered() {
		t.Fatalf("expected strictly ordered output, got %+v", out)
	}
	// "a" and "b" each appear in both lists at ranks (0,1) and (1,0);
	// their combined score should exceed "c" and "d" which appear once.
	scoreOf := func(id string) float64 {
		for _, it := range out {
			if it.ChunkID == id {
				return it.Score
			}
		}
		t.Fatalf("id %s missing from fused output", id)
		return 0
	}
	if scoreOf("a") <= scoreOf("c") || scoreOf("b") <= scoreOf("d") {
		t.Fatalf("expected items in both lists to outscore items in one")
	}
}

func TestRRFCommutativeOverListOrder(t *testing.T) {
	l1 := List{IDs: []string{"x", "y", "z"}, Weight: 1}
	l2 := List{IDs: []string{"y", "z", "x"}, Weight: 1}

	a := RRF([]List{l1, l2}, 60, nil)
	b := RRF([]List{l2, l1}, 60, nil)

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ChunkID != b[i].ChunkID || a[i].Score != b[i].Score {
			t.Fatalf("fusion not commutative over list order at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRRFAbsentItemsContributeZero(t *testing.T) {
	lists := []List{
		{IDs: []string{"only-in-one"}, Weight: 1},
	}
	out := RRF(lists, 60, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	want := 1.0 / float64(60+0+1)
	if out[0].Score != want {
		t.Fatalf("expected score %v, got %v", want, out[0].Score)
	}
}

func TestRRFSingleListReducesToRankOrder(t *testing.T) {
	ids := []string{"p1", "p2", "p3"}
	out := RRF([]List{{IDs: ids, Weight: 1}}, 60, nil)
	for i, id := range ids {
		if out[i].ChunkID != id {
			t.Fatalf("expected rank order preserved, got %+v", out)
		}
	}
}

func TestRRFWeights(t *testing.T) {
	lists := []List{
		{IDs: []string{"heavy"}, Weight: 2.0},
		{IDs: []string{"light"}, Weight: 0.5},
	}
	out := RRF(lists, 60, nil)
	var heavy, light float64
	for _, it := range out {
		if it.ChunkID == "heavy" {
			heavy = it.Score
		}
		if it.ChunkID == "light" {
			light = it.Score
		}
	}
	if heavy <= light {
		t.Fatalf("expected weighted list to score higher: heavy=%v light=%v", heavy, light)
	}
}

func TestRRFCarriesChunkPayload(t *testing.T) {
	chunks := map[string]*ragmodel.Chunk{
		"a": {ID: "a", Text: "hello"},
	}
	out := RRF([]List{{IDs: []string{"a"}, Weight: 1}}, 60, chunks)
	if out[0].Chunk == nil || out[0].Chunk.Text != "hello" {
		t.Fatalf("expected chunk payload carried through fusion")
	}
}
