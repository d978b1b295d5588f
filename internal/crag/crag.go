// Package crag implements the CRAG Gate of spec.md §4.K: evaluates the
// merged (RRF-fused) ranked list after each fan-out round and decides
// whether the pipeline has strong enough evidence to proceed, should
// retry with a reformulated query, or must return its best-effort
// result with a trace warning.
package crag

import "github.com/semaj90/legal-rag-core/internal/ragmodel"

// Level mirrors the evidence strength spec.md §4.K assigns to each
// Outcome.
type Level string

const (
	LevelStrong Level = "STRONG"
	LevelWeak   Level = "WEAK"
	LevelNone   Level = "NONE"
)

// Outcome is the gate's decision for one evaluation.
type Outcome string

const (
	OutcomePass      Outcome = "pass"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeFail      Outcome = "fail"
)

// Decision is the full result of one Gate.Evaluate call.
type Decision struct {
	Outcome       Outcome
	Level         Level
	BestScore     float64
	MeanTop5Score float64
	RetriesLeft   int
}

// Gate evaluates a fused ranked list against configurable thresholds.
type Gate struct {
	MinBestScore float64
	MinAvgScore  float64
	MaxRetries   int
}

// New builds a Gate with spec.md §4.K's defaults, overridable per the
// zero-value fields (thresholds <= 0 fall back to the default).
func New(minBestScore, minAvgScore float64, maxRetries int) *Gate {
	if minBestScore <= 0 {
		minBestScore = 0.5
	}
	if minAvgScore <= 0 {
		minAvgScore = 0.35
	}
	if maxRetries <= 0 {
		maxRetries = 2
	}
	return &Gate{MinBestScore: minBestScore, MinAvgScore: minAvgScore, MaxRetries: maxRetries}
}

func meanTop5(fused ragmodel.RankedList) float64 {
	n := len(fused)
	if n > 5 {
		n = 5
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += fused[i].Score
	}
	return sum / float64(n)
}

// Evaluate reads scores from a sorted fused list (RRF scores) and
// returns a Decision per spec.md §4.K's PASS/AMBIGUOUS/FAIL rules.
// retriesUsed is how many retries have already been spent this request;
// the Decision's RetriesLeft accounts for it.
func (g *Gate) Evaluate(fused ragmodel.RankedList, retriesUsed int) Decision {
	best := 0.0
	if len(fused) > 0 {
		best = fused[0].Score
	}
	mean := meanTop5(fused)
	retriesLeft := g.MaxRetries - retriesUsed
	if retriesLeft < 0 {
		retriesLeft = 0
	}

	if best >= g.MinBestScore && mean >= g.MinAvgScore {
		return Decision{Outcome: OutcomePass, Level: LevelStrong, BestScore: best, MeanTop5Score: mean, RetriesLeft: retriesLeft}
	}

	if best >= g.MinBestScore/2 || mean >= g.MinAvgScore/2 {
		// Level is WEAK regardless of retries remaining; whether the
		// orchestrator actually retries or falls through to rerank like a
		// FAIL (spec.md §4.L: "ambiguous (no retries)") is its call, driven
		// by RetriesLeft, not this Gate's.
		return Decision{Outcome: OutcomeAmbiguous, Level: LevelWeak, BestScore: best, MeanTop5Score: mean, RetriesLeft: retriesLeft}
	}

	return Decision{Outcome: OutcomeFail, Level: LevelNone, BestScore: best, MeanTop5Score: mean, RetriesLeft: retriesLeft}
}
