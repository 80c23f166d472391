package manifest

import (
	"github.com/samber/lo"

	"stitch-ai/internal/types"
)

// trimmingMethod recorded in the loop-detection stats block.
const trimmingMethod = "start_and_end"

// MotionStrengthClean is the strength above which a trimmed clip counts
// as carrying real motion rather than a basic safety trim.
const MotionStrengthClean = 0.3

// LoopRefinement carries one clip's detected bounds back onto the item
// at Index.
type LoopRefinement struct {
	Index            int
	OriginalDuration float64
	Bounds           types.LoopBounds
}

// TimeSaved is how much of the original clip the trim removed.
func (r LoopRefinement) TimeSaved() float64 {
	return r.OriginalDuration - r.Bounds.CleanDuration
}

// CleanMotion reports whether the detected interval carries real motion.
func (r LoopRefinement) CleanMotion() bool {
	return r.Bounds.MotionStrength > MotionStrengthClean
}

// ApplyLoopBounds rewrites items with their clean-motion intervals,
// preserving item order. Items with no refinement (source file missing)
// drop out of the plan. Both the original and the refined duration stay
// on the item so the saved time is auditable. Returns the total time
// saved across the batch.
func ApplyLoopBounds(m *Manifest, refs []LoopRefinement) float64 {
	byIndex := make(map[int]LoopRefinement, len(refs))
	for _, r := range refs {
		byIndex[r.Index] = r
	}

	kept := make([]Item, 0, len(refs))
	saved := 0.0
	for i, it := range m.Items {
		r, ok := byIndex[i]
		if !ok {
			continue
		}

		it.OriginalDuration = lo.ToPtr(r.OriginalDuration)
		it.StartTrim = lo.ToPtr(r.Bounds.MotionStart)
		it.CleanDuration = lo.ToPtr(r.Bounds.CleanDuration)
		it.MotionStrength = lo.ToPtr(r.Bounds.MotionStrength)
		it.T1 = it.T0 + r.Bounds.CleanDuration

		saved += r.TimeSaved()
		kept = append(kept, it)
	}

	m.Items = kept
	m.LoopDetection = &LoopDetection{
		TotalClips:     len(kept),
		TotalTimeSaved: saved,
		TrimmingMethod: trimmingMethod,
	}
	return saved
}

// MarginOptions are the safety margins applied before concat-only
// stitching.
type MarginOptions struct {
	Lead   float64
	Tail   float64
	MinDur float64
}

func DefaultMargins() MarginOptions {
	return MarginOptions{Lead: 0.30, Tail: 0.30, MinDur: 1.00}
}

// ApplyMargins shaves a lead and tail off every item and drops items
// left shorter than the minimum. The trimmed window lands in
// clip_start/clip_end; t0/t1 stay untouched. Returns how many items
// were dropped.
func ApplyMargins(m *Manifest, opts MarginOptions) int {
	kept := make([]Item, 0, len(m.Items))
	for _, it := range m.Items {
		start := it.T0 + opts.Lead
		end := it.T1 - opts.Tail
		if end-start < opts.MinDur {
			continue
		}
		it.ClipStart = lo.ToPtr(start)
		it.ClipEnd = lo.ToPtr(end)
		kept = append(kept, it)
	}

	dropped := len(m.Items) - len(kept)
	m.Items = kept
	return dropped
}
