package sequence

import (
	"regexp"
	"strings"

	"stitch-ai/internal/types"

	"github.com/samber/lo"
)

var sceneSigCleaner = regexp.MustCompile(`[^a-z0-9_]+`)

// SceneSignature buckets clips shot in the same setting:
// {scene_type}_{lighting}_{tone}, lowercased and cleaned. The metadata
// vocabulary carries no setting field, so tone stands in as the third
// component.
func SceneSignature(attrs types.AttributeSet) string {
	parts := []string{attr(attrs.SceneType), attr(attrs.Lighting), attr(attrs.Tone)}
	sig := strings.Join(parts, "_")
	sig = strings.ReplaceAll(sig, " ", "_")
	return sceneSigCleaner.ReplaceAllString(sig, "")
}

// GroupByScene buckets records by the scene signature of their start state.
func GroupByScene(records []types.ClipRecord) map[string][]types.ClipRecord {
	return lo.GroupBy(records, func(r types.ClipRecord) string {
		return SceneSignature(r.StartAttrs)
	})
}

var loopPrimaryKeywords = []string{"repetitive", "rhythmic", "steady", "consistent"}
var loopSecondaryKeywords = []string{"sway", "bounce", "rock", "spin"}

// LoopCandidateScore rates how likely a clip loops cleanly, judged from
// its motion and action descriptions.
func LoopCandidateScore(attrs types.AttributeSet) float64 {
	text := strings.ToLower(attrs.Motion + " " + attrs.Action)
	score := 0.0
	for _, kw := range loopPrimaryKeywords {
		if strings.Contains(text, kw) {
			score += 0.5
			break
		}
	}
	for _, kw := range loopSecondaryKeywords {
		if strings.Contains(text, kw) {
			score += 0.3
			break
		}
	}
	return score
}

// IsLoopCandidate reports whether a clip looks like a loopable take.
func IsLoopCandidate(attrs types.AttributeSet) bool {
	return LoopCandidateScore(attrs) > 0.4
}
