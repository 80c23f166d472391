package manifest

import (
	"github.com/samber/lo"

	"stitch-ai/internal/types"
)

// Builder lays an optimized sequence onto a single output timeline.
type Builder struct {
	// ClipSeconds is the duration assumed for clips whose metadata
	// carried no usable bounds.
	ClipSeconds float64
}

func NewBuilder(clipSeconds float64) *Builder {
	if clipSeconds <= 0 {
		clipSeconds = DefaultClipSeconds
	}
	return &Builder{ClipSeconds: clipSeconds}
}

// Build places the ordered clips back to back. A crossfade overlaps its
// two neighbors, so it pulls the incoming clip back by the fade duration
// before the cursor advances again.
func (b *Builder) Build(records []types.ClipRecord, transitions []types.Transition) *Manifest {
	items := make([]Item, 0, len(records))

	cursor := 0.0
	for i, rec := range records {
		var in *Transition
		if i > 0 && i-1 < len(transitions) {
			t := convertTransition(transitions[i-1])
			if t.Type == string(types.TransitionCrossfade) {
				cursor -= t.Duration
			}
			in = &t
		}

		clipSeconds := rec.Duration()
		if clipSeconds <= 0 {
			clipSeconds = b.ClipSeconds
		}

		items = append(items, Item{
			Path:         rec.Path,
			T0:           cursor,
			T1:           cursor + clipSeconds,
			Base:         rec.Base,
			TransitionIn: in,
		})
		cursor += clipSeconds
	}

	avgScore := 0.0
	if len(transitions) > 0 {
		avgScore = lo.SumBy(transitions, func(t types.Transition) float64 { return t.Score }) / float64(len(transitions))
	}

	return &Manifest{
		Version: Version,
		Items:   items,
		Transitions: lo.Map(transitions, func(t types.Transition, _ int) Transition {
			return convertTransition(t)
		}),
		TotalDuration: cursor,
		Optimization: &OptimizationSummary{
			TotalClips:         len(records),
			AvgTransitionScore: avgScore,
		},
	}
}

func convertTransition(t types.Transition) Transition {
	return Transition{
		FromClip: t.FromId,
		ToClip:   t.ToId,
		Type:     string(t.Kind),
		Duration: t.Duration,
		Score:    t.Score,
	}
}
