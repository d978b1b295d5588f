package crag

import (
	"testing"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

func listOf(scores ...float64) ragmodel.RankedList {
	var out ragmodel.RankedList
	for i, s := range scores {
		out = append(out, ragmodel.RankedItem{ChunkID: string(rune('a' + i)), Score: s})
	}
	return out
}

func TestEvaluatePassWithStrongEvidence(t *testing.T) {
	g := New(0, 0, 0)
	d := g.Evaluate(listOf(0.6, 0.5, 0.4, 0.4, 0.4), 0)
	if d.Outcome != OutcomePass || d.Level != LevelStrong {
		t.Fatalf("expected pass/strong, got %+v", d)
	}
}

func TestEvaluateAmbiguousTriggersRetry(t *testing.T) {
	g := New(0, 0, 0)
	d := g.Evaluate(listOf(0.3, 0.2), 0)
	if d.Outcome != OutcomeAmbiguous || d.Level != LevelWeak {
		t.Fatalf("expected ambiguous/weak, got %+v", d)
	}
	if d.RetriesLeft != 2 {
		t.Fatalf("expected 2 retries left (default max), got %d", d.RetriesLeft)
	}
}

func TestEvaluateFailWithNoEvidence(t *testing.T) {
	g := New(0, 0, 0)
	d := g.Evaluate(ragmodel.RankedList{}, 0)
	if d.Outcome != OutcomeFail || d.Level != LevelNone {
		t.Fatalf("expected fail/none, got %+v", d)
	}
}

func TestEvaluateRetriesExhausted(t *testing.T) {
	g := New(0, 0, 1)
	d := g.Evaluate(listOf(0.3, 0.2), 1)
	if d.RetriesLeft != 0 {
		t.Fatalf("expected 0 retries left, got %d", d.RetriesLeft)
	}
	if d.Outcome != OutcomeAmbiguous {
		t.Fatalf("expected outcome to remain ambiguous even with no retries left, got %s", d.Outcome)
	}
}

func TestEvaluateThresholdsOverridable(t *testing.T) {
	g := New(0.9, 0.8, 0)
	d := g.Evaluate(listOf(0.6, 0.5, 0.4, 0.4, 0.4), 0)
	if d.Outcome == OutcomePass {
		t.Fatalf("expected stricter thresholds to prevent a pass, got %+v", d)
	}
}
