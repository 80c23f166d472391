package ffmpeg

import (
	"context"
	"os/exec"

	"stitch-ai/internal/types"
	apperrors "stitch-ai/pkg/errors"
)

// Render executes a plan. A non-zero ffmpeg exit is fatal for the run
// and carries the tail of ffmpeg's own output so the caller can surface
// the real diagnostic.
func (t *Tool) Render(ctx context.Context, plan types.RenderPlan) error {
	if len(plan.Inputs) == 0 {
		return apperrors.New(apperrors.CodeRenderFailed, "渲染计划没有输入 render plan has no inputs")
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, renderArgs(plan)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return apperrors.WrapWithDetail(apperrors.CodeRenderFailed,
			"ffmpeg 渲染失败 ffmpeg render failed", tail(string(out), 1000), err)
	}
	return nil
}

// renderArgs assembles the ffmpeg invocation for a plan: all inputs, the
// filter graph, stream mapping, and the fixed encode profile.
func renderArgs(plan types.RenderPlan) []string {
	args := []string{"-y"}
	for _, in := range plan.Inputs {
		args = append(args, "-i", in)
	}
	args = append(args, "-filter_complex", plan.FilterComplex, "-map", plan.VideoLabel)
	if !plan.VideoOnly {
		args = append(args, "-map", plan.AudioLabel)
	}
	args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-crf", "20", "-pix_fmt", "yuv420p")
	if !plan.VideoOnly {
		args = append(args, "-c:a", "aac", "-b:a", "192k")
	}
	return append(args, plan.OutputPath)
}

// ConcatCopy joins the files in a concat list without re-encoding.
func (t *Tool) ConcatCopy(ctx context.Context, listPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return apperrors.WrapWithDetail(apperrors.CodeRenderFailed,
			"ffmpeg 拼接失败 ffmpeg concat failed", tail(string(out), 1000), err)
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
