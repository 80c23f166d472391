package sequence

import (
	"testing"

	"stitch-ai/internal/types"

	"github.com/stretchr/testify/assert"
)

func clipWithAttrs(id string, attrs types.AttributeSet) types.ClipRecord {
	return types.ClipRecord{
		Id:         id,
		Path:       "/clips/" + id + ".mp4",
		T0:         0,
		T1:         5,
		StartAttrs: attrs,
		EndAttrs:   attrs,
	}
}

func TestScoreIdenticalClipsIsOne(t *testing.T) {
	attrs := types.AttributeSet{
		Subject:        "dancer",
		Motion:         "slow",
		Lighting:       "bright",
		SceneType:      "studio",
		DominantColors: []string{"red", "blue", "gold"},
	}
	a := clipWithAttrs("a", attrs)
	b := clipWithAttrs("b", attrs)

	assert.InDelta(t, 1.0, NewScorer().Score(a, b), 1e-9)
}

func TestScoreAlwaysWithinUnitInterval(t *testing.T) {
	scorer := NewScorer()

	variants := []types.AttributeSet{
		{},
		{Subject: "dancer"},
		{Subject: "tall dancer", Motion: "fast", Lighting: "night"},
		{Subject: "dancer", Motion: "slow", Lighting: "bright", SceneType: "studio", DominantColors: []string{"red", "blue", "gold"}},
		{Motion: "energetic", DominantColors: []string{"teal"}},
	}

	for _, av := range variants {
		for _, bv := range variants {
			a := clipWithAttrs("a", av)
			b := clipWithAttrs("b", bv)
			s := scorer.Score(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestSubjectSharedTokenHalfCredit(t *testing.T) {
	scorer := NewScorer()

	a := clipWithAttrs("a", types.AttributeSet{Subject: "tall dancer"})
	b := clipWithAttrs("b", types.AttributeSet{Subject: "dancer silhouette"})
	c := clipWithAttrs("c", types.AttributeSet{Subject: "empty chair"})

	shared := scorer.Score(a, b)
	unrelated := scorer.Score(a, c)

	// half of the 0.30 subject weight separates shared-token pairs from
	// unrelated pairs, all other factors being equal
	assert.InDelta(t, 0.15, shared-unrelated, 1e-9)
}

func TestLightingBuckets(t *testing.T) {
	scorer := NewScorer()

	exact := scorer.Score(
		clipWithAttrs("a", types.AttributeSet{Lighting: "bright"}),
		clipWithAttrs("b", types.AttributeSet{Lighting: "bright"}),
	)
	sameBucket := scorer.Score(
		clipWithAttrs("a", types.AttributeSet{Lighting: "bright"}),
		clipWithAttrs("b", types.AttributeSet{Lighting: "daylight"}),
	)
	crossBucket := scorer.Score(
		clipWithAttrs("a", types.AttributeSet{Lighting: "bright"}),
		clipWithAttrs("b", types.AttributeSet{Lighting: "night"}),
	)

	assert.InDelta(t, 0.10, exact-sameBucket, 1e-9)
	assert.InDelta(t, 0.20, exact-crossBucket, 1e-9)
}

func TestMotionCompatibility(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "slow", b: "slow", want: 1.0},
		{name: "both slow family", a: "gentle", b: "calm", want: 0.8},
		{name: "both fast family", a: "quick", b: "energetic", want: 0.8},
		{name: "slow against fast", a: "still", b: "rapid", want: 0.2},
		{name: "unknown against slow", a: "unknown", b: "slow", want: 0.5},
		{name: "freeform against freeform", a: "wobbling", b: "drifting", want: 0.5},
		{name: "missing one side", a: "", b: "fast", want: 0.5},
		{name: "missing both sides", a: "", b: "", want: 0.5},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, motionCompatibility(tc.a, tc.b), 1e-9)
		})
	}
}

func TestColorHarmony(t *testing.T) {
	testCases := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical sets", a: []string{"red", "blue", "gold"}, b: []string{"red", "blue", "gold"}, want: 1.0},
		{name: "one shared of three", a: []string{"red", "blue", "gold"}, b: []string{"red", "green", "black"}, want: 1.0 / 3.0},
		{name: "min side normalization", a: []string{"red"}, b: []string{"red", "green", "black"}, want: 1.0},
		{name: "disjoint", a: []string{"red"}, b: []string{"green"}, want: 0.0},
		{name: "empty side neutral", a: nil, b: []string{"red"}, want: 0.5},
		{name: "case insensitive", a: []string{"Red"}, b: []string{"red"}, want: 1.0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, colorHarmony(tc.a, tc.b), 1e-9)
		})
	}
}

func TestScoreUsesEndStateAgainstStartState(t *testing.T) {
	scorer := NewScorer()

	a := types.ClipRecord{
		Id:         "a",
		StartAttrs: types.AttributeSet{Subject: "crowd"},
		EndAttrs:   types.AttributeSet{Subject: "dancer", SceneType: "studio", Lighting: "bright"},
	}
	b := types.ClipRecord{
		Id:         "b",
		StartAttrs: types.AttributeSet{Subject: "dancer", SceneType: "studio", Lighting: "bright"},
		EndAttrs:   types.AttributeSet{Subject: "crowd"},
	}

	// a's end matches b's start exactly: subject + scene + lighting +
	// missing motion neutral + empty colors neutral
	assert.InDelta(t, 0.30+0.25+0.20+0.5*0.15+0.05, scorer.Score(a, b), 1e-9)
}

func TestScoreMissingMotionStaysNeutral(t *testing.T) {
	scorer := NewScorer()

	// same subject, same scene, same lighting bucket, motion absent on
	// both sides: the motion factor must stay at its 0.5 midpoint, not
	// count as a full match
	a := clipWithAttrs("a", types.AttributeSet{Subject: "dancer", SceneType: "studio", Lighting: "bright"})
	b := clipWithAttrs("b", types.AttributeSet{Subject: "dancer", SceneType: "studio", Lighting: "daylight"})

	s := scorer.Score(a, b)
	assert.InDelta(t, 0.30+0.25+0.10+0.5*0.15+0.05, s, 1e-9)

	kind, _ := Classify(s, DefaultThresholds())
	assert.Equal(t, types.TransitionCrossfade, kind)
}
