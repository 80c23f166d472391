package sequence

import (
	"math"
	"strings"

	"stitch-ai/internal/types"
)

// Factor weights of the transition score. They total 1.0.
const (
	weightSubject  = 0.30
	weightScene    = 0.25
	weightLighting = 0.20
	weightMotion   = 0.15
	weightColor    = 0.10
)

var brightFamily = map[string]bool{
	"bright": true, "daylight": true, "sunny": true, "well-lit": true,
}

var dimFamily = map[string]bool{
	"dim": true, "dark": true, "low-light": true, "evening": true, "night": true,
}

var slowFamily = map[string]bool{
	"slow": true, "gentle": true, "calm": true, "still": true, "steady": true,
}

var fastFamily = map[string]bool{
	"fast": true, "quick": true, "rapid": true, "dynamic": true, "energetic": true,
}

// Scorer rates perceptual continuity between the end state of one clip
// and the start state of the next. Scores are always within [0,1];
// missing attributes degrade gracefully instead of erroring.
type Scorer struct{}

func NewScorer() Scorer {
	return Scorer{}
}

func (Scorer) Score(a, b types.ClipRecord) float64 {
	end := a.EndAttrs
	start := b.StartAttrs

	score := subjectComponent(attr(end.Subject), attr(start.Subject))
	score += sceneComponent(attr(end.SceneType), attr(start.SceneType))
	score += lightingComponent(attr(end.Lighting), attr(start.Lighting))
	score += weightMotion * motionCompatibility(end.Motion, start.Motion)
	score += weightColor * colorHarmony(end.DominantColors, start.DominantColors)

	return math.Min(1.0, score)
}

func subjectComponent(a, b string) float64 {
	if a == b {
		return weightSubject
	}
	if sharesWordToken(a, b) {
		return weightSubject / 2
	}
	return 0
}

func sceneComponent(a, b string) float64 {
	if a == b {
		return weightScene
	}
	return 0
}

func lightingComponent(a, b string) float64 {
	if a == b {
		return weightLighting
	}
	if (brightFamily[a] && brightFamily[b]) || (dimFamily[a] && dimFamily[b]) {
		return weightLighting / 2
	}
	return 0
}

// motionCompatibility: identical 1.0, same family 0.8, opposite
// families 0.2, everything else the neutral 0.5. Missing data on either
// side is neutral too, checked before the identity comparison so two
// unlabeled clips never count as matching motion.
func motionCompatibility(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0.5
	}
	if a == b {
		return 1.0
	}
	aSlow, bSlow := slowFamily[a], slowFamily[b]
	aFast, bFast := fastFamily[a], fastFamily[b]
	switch {
	case aSlow && bSlow, aFast && bFast:
		return 0.8
	case (aSlow && bFast) || (aFast && bSlow):
		return 0.2
	default:
		return 0.5
	}
}

// colorHarmony: |intersection| / min(len(a), len(b)); 0.5 when either
// side carries no colors.
func colorHarmony(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}
	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	shared := 0
	seen := make(map[string]bool, len(b))
	for _, c := range b {
		key := strings.ToLower(strings.TrimSpace(c))
		if set[key] && !seen[key] {
			shared++
			seen[key] = true
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) / float64(smaller)
}

func sharesWordToken(a, b string) bool {
	tokens := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		tokens[w] = true
	}
	for _, w := range strings.Fields(b) {
		if tokens[w] {
			return true
		}
	}
	return false
}

// attr normalizes an attribute for comparison; absent values collapse
// to "unknown" so two unlabeled clips still compare as alike.
func attr(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
