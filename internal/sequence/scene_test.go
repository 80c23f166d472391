package sequence

import (
	"testing"

	"stitch-ai/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestSceneSignature(t *testing.T) {
	sig := SceneSignature(types.AttributeSet{
		SceneType: "Dance Studio",
		Lighting:  "well-lit",
		Tone:      "energetic",
	})
	assert.Equal(t, "dance_studio_welllit_energetic", sig)

	// absent attributes collapse to unknown
	assert.Equal(t, "unknown_unknown_unknown", SceneSignature(types.AttributeSet{}))
}

func TestGroupByScene(t *testing.T) {
	records := []types.ClipRecord{
		clipWithAttrs("a", types.AttributeSet{SceneType: "studio", Lighting: "bright", Tone: "calm"}),
		clipWithAttrs("b", types.AttributeSet{SceneType: "studio", Lighting: "bright", Tone: "calm"}),
		clipWithAttrs("c", types.AttributeSet{SceneType: "street", Lighting: "night", Tone: "moody"}),
	}

	groups := GroupByScene(records)
	assert.Len(t, groups, 2)
	assert.Len(t, groups["studio_bright_calm"], 2)
	assert.Len(t, groups["street_night_moody"], 1)
}

func TestLoopCandidateScore(t *testing.T) {
	testCases := []struct {
		name      string
		attrs     types.AttributeSet
		wantScore float64
		candidate bool
	}{
		{
			name:      "primary keyword only",
			attrs:     types.AttributeSet{Motion: "steady"},
			wantScore: 0.5,
			candidate: true,
		},
		{
			name:      "primary and secondary",
			attrs:     types.AttributeSet{Motion: "rhythmic", Action: "swaying side to side"},
			wantScore: 0.8,
			candidate: true,
		},
		{
			name:      "secondary only",
			attrs:     types.AttributeSet{Action: "bouncing ball"},
			wantScore: 0.3,
			candidate: false,
		},
		{
			name:      "nothing loopable",
			attrs:     types.AttributeSet{Motion: "fast", Action: "sprinting"},
			wantScore: 0.0,
			candidate: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.wantScore, LoopCandidateScore(tc.attrs), 1e-9)
			assert.Equal(t, tc.candidate, IsLoopCandidate(tc.attrs))
		})
	}
}
