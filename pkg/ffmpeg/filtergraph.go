package ffmpeg

import (
	"fmt"
	"math"
	"strings"

	"stitch-ai/internal/manifest"
	"stitch-ai/internal/types"
	apperrors "stitch-ai/pkg/errors"
)

// Transitions scoring below this get their clip tail shaved in the
// cuts-only plan.
const poorScoreThreshold = 0.5

// PlanTransitions turns a manifest into a render plan that joins every
// consecutive pair with its prescribed transition: xfade/acrossfade for
// crossfades, fade-out/fade-in plus pairwise concat through black, and
// plain pairwise concat for cuts.
func PlanTransitions(m *manifest.Manifest, outputPath string) (types.RenderPlan, error) {
	if len(m.Items) == 0 {
		return types.RenderPlan{}, apperrors.New(apperrors.CodeGraphBuildFailed, "清单没有条目 manifest has no items")
	}

	graph := BuildTransitionGraph(m.Items, m.Transitions)
	return types.RenderPlan{
		Inputs:        itemPaths(m.Items),
		FilterComplex: graph,
		VideoLabel:    "[v]",
		AudioLabel:    "[a]",
		OutputPath:    outputPath,
	}, nil
}

// BuildTransitionGraph writes the filter_complex for the transition
// chain. Items without a matching transition fall back to simple
// concatenation.
func BuildTransitionGraph(items []manifest.Item, transitions []manifest.Transition) string {
	parts := make([]string, 0, len(items)+len(transitions)*6)
	for i := range items {
		parts = append(parts, fmt.Sprintf("[%d:v]setpts=PTS-STARTPTS[v%d];[%d:a]asetpts=N/SR/TB[a%d]", i, i, i, i))
	}

	if len(transitions) == 0 {
		var labels strings.Builder
		for i := range items {
			fmt.Fprintf(&labels, "[v%d]", i)
		}
		for i := range items {
			fmt.Fprintf(&labels, "[a%d]", i)
		}
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[v][a]", labels.String(), len(items)))
		return strings.Join(parts, ";")
	}

	curV, curA := "v0", "a0"
	for i, tr := range transitions {
		next := i + 1
		if next >= len(items) {
			break
		}
		d := formatSeconds(tr.Duration)

		switch {
		case tr.Type == string(types.TransitionCrossfade) && tr.Duration > 0:
			parts = append(parts,
				fmt.Sprintf("[%s][v%d]xfade=transition=fade:duration=%s[vx%d]", curV, next, d, i),
				fmt.Sprintf("[%s][a%d]acrossfade=duration=%s[ax%d]", curA, next, d, i),
			)
		case tr.Type == string(types.TransitionFadeBlack) && tr.Duration > 0:
			parts = append(parts,
				fmt.Sprintf("[%s]fade=t=out:d=%s[vfo%d]", curV, d, i),
				fmt.Sprintf("[%s]afade=t=out:d=%s[afo%d]", curA, d, i),
				fmt.Sprintf("[v%d]fade=t=in:d=%s[vfi%d]", next, d, i),
				fmt.Sprintf("[a%d]afade=t=in:d=%s[afi%d]", next, d, i),
				fmt.Sprintf("[vfo%d][vfi%d]concat=n=2:v=1:a=0[vx%d]", i, i, i),
				fmt.Sprintf("[afo%d][afi%d]concat=n=2:v=0:a=1[ax%d]", i, i, i),
			)
		default:
			parts = append(parts,
				fmt.Sprintf("[%s][v%d]concat=n=2:v=1:a=0[vx%d]", curV, next, i),
				fmt.Sprintf("[%s][a%d]concat=n=2:v=0:a=1[ax%d]", curA, next, i),
			)
		}
		curV = fmt.Sprintf("vx%d", i)
		curA = fmt.Sprintf("ax%d", i)
	}

	parts = append(parts, fmt.Sprintf("[%s]null[v]", curV), fmt.Sprintf("[%s]anull[a]", curA))
	return strings.Join(parts, ";")
}

// PlanLoopTrimmed renders the loop-refined manifest: every input is cut
// to its clean-motion window, then the windows concat video-only.
func PlanLoopTrimmed(m *manifest.Manifest, outputPath string) (types.RenderPlan, error) {
	if len(m.Items) == 0 {
		return types.RenderPlan{}, apperrors.New(apperrors.CodeGraphBuildFailed, "清单没有条目 manifest has no items")
	}

	parts := make([]string, 0, len(m.Items)+1)
	for i, it := range m.Items {
		start := 0.0
		if it.StartTrim != nil {
			start = *it.StartTrim
		}
		dur := manifest.DefaultClipSeconds
		if it.CleanDuration != nil {
			dur = *it.CleanDuration
		}
		parts = append(parts, fmt.Sprintf("[%d:v]trim=start=%s:duration=%s,setpts=PTS-STARTPTS[v%d]",
			i, formatSeconds(start), formatSeconds(dur), i))
	}
	parts = append(parts, concatVideoOnly(len(m.Items)))

	return types.RenderPlan{
		Inputs:        itemPaths(m.Items),
		FilterComplex: strings.Join(parts, ";"),
		VideoLabel:    "[v]",
		VideoOnly:     true,
		OutputPath:    outputPath,
	}, nil
}

// PlanCleanCuts renders the sequence with hard cuts only. Clips heading
// into a poor transition lose up to one second from their tail so the
// mismatch lands off screen.
func PlanCleanCuts(m *manifest.Manifest, outputPath string) (types.RenderPlan, error) {
	if len(m.Items) == 0 {
		return types.RenderPlan{}, apperrors.New(apperrors.CodeGraphBuildFailed, "清单没有条目 manifest has no items")
	}

	parts := make([]string, 0, len(m.Items)+1)
	for i, it := range m.Items {
		trimEnd := 0.0
		if i < len(m.Transitions) {
			trimEnd = poorScoreTrim(m.Transitions[i].Score)
		}
		if trimEnd > 0 {
			newDur := math.Max(1.0, it.Duration()-trimEnd)
			parts = append(parts, fmt.Sprintf("[%d:v]trim=duration=%s,setpts=PTS-STARTPTS[v%d]",
				i, formatSeconds(newDur), i))
		} else {
			parts = append(parts, fmt.Sprintf("[%d:v]setpts=PTS-STARTPTS[v%d]", i, i))
		}
	}
	parts = append(parts, concatVideoOnly(len(m.Items)))

	return types.RenderPlan{
		Inputs:        itemPaths(m.Items),
		FilterComplex: strings.Join(parts, ";"),
		VideoLabel:    "[v]",
		VideoOnly:     true,
		OutputPath:    outputPath,
	}, nil
}

// poorScoreTrim maps a transition score onto seconds to shave, capped
// at one second.
func poorScoreTrim(score float64) float64 {
	if score >= poorScoreThreshold {
		return 0
	}
	return math.Min(1.0, (poorScoreThreshold-score)*2.0)
}

func concatVideoOnly(n int) string {
	var labels strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&labels, "[v%d]", i)
	}
	return fmt.Sprintf("%sconcat=n=%d:v=1:a=0[v]", labels.String(), n)
}

func itemPaths(items []manifest.Item) []string {
	paths := make([]string, 0, len(items))
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	return paths
}
