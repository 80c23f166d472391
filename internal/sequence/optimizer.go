package sequence

import (
	"stitch-ai/internal/types"
)

// Thresholds classify a transition from its score. Defaults mirror the
// planning constants; config may tighten them but classification stays
// a pure function of the score.
type Thresholds struct {
	Cut               float64
	Crossfade         float64
	CrossfadeDuration float64
	FadeBlackDuration float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Cut:               0.8,
		Crossfade:         0.5,
		CrossfadeDuration: 0.5,
		FadeBlackDuration: 0.3,
	}
}

// Classify maps a score onto a transition kind and duration:
// above Cut a hard cut (0s), above Crossfade a crossfade, else a
// fade through black.
func Classify(score float64, th Thresholds) (types.TransitionKind, float64) {
	switch {
	case score > th.Cut:
		return types.TransitionCut, 0
	case score > th.Crossfade:
		return types.TransitionCrossfade, th.CrossfadeDuration
	default:
		return types.TransitionFadeBlack, th.FadeBlackDuration
	}
}

// ScoreFunc rates the continuity of playing b directly after a.
type ScoreFunc func(a, b types.ClipRecord) float64

// Result of one optimization pass: the tour as indexes into the input,
// the per-step score trail, and the classified transitions.
type Result struct {
	Order       []int
	ScoreTrail  []float64
	Transitions []types.Transition
}

// Apply returns the records arranged in tour order. The input slice is
// left untouched.
func (r Result) Apply(records []types.ClipRecord) []types.ClipRecord {
	out := make([]types.ClipRecord, 0, len(r.Order))
	for _, idx := range r.Order {
		out = append(out, records[idx])
	}
	return out
}

// Optimize builds a greedy nearest-neighbor tour: seed with the first
// record in input order, then repeatedly append the unplaced record
// scoring highest against the current tail. Ties keep the lowest
// index. O(N²) score calls, N is one session's clip count. Pure over
// an index arena; records are never reordered or mutated here.
func Optimize(records []types.ClipRecord, score ScoreFunc, th Thresholds) Result {
	n := len(records)
	if n == 0 {
		return Result{}
	}

	order := make([]int, 0, n)
	trail := make([]float64, 0, n-1)
	picked := make([]bool, n)

	current := 0
	order = append(order, current)
	picked[current] = true

	for len(order) < n {
		best := -1
		bestScore := -1.0
		for cand := 0; cand < n; cand++ {
			if picked[cand] {
				continue
			}
			if s := score(records[current], records[cand]); s > bestScore {
				best, bestScore = cand, s
			}
		}
		picked[best] = true
		order = append(order, best)
		trail = append(trail, bestScore)
		current = best
	}

	transitions := make([]types.Transition, 0, len(trail))
	for i := 1; i < len(order); i++ {
		s := trail[i-1]
		kind, duration := Classify(s, th)
		transitions = append(transitions, types.Transition{
			FromId:   clipKey(records[order[i-1]]),
			ToId:     clipKey(records[order[i]]),
			Score:    s,
			Kind:     kind,
			Duration: duration,
		})
	}

	return Result{Order: order, ScoreTrail: trail, Transitions: transitions}
}

// clipKey names a clip inside transition records, preferring the clip
// file base over the metadata document id.
func clipKey(rec types.ClipRecord) string {
	if rec.Base != "" {
		return rec.Base
	}
	return rec.Id
}
