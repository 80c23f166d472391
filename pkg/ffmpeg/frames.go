package ffmpeg

import (
	"context"
	"os/exec"
	"strconv"
)

// SampleFrame decodes the single frame at ts into outPath. The output
// format follows the outPath extension.
func (t *Tool) SampleFrame(ctx context.Context, videoPath string, ts float64, outPath string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(ts),
		"-i", videoPath,
		"-frames:v", "1",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return &FrameExtractionError{Path: videoPath, Timestamp: ts, Output: string(out), Err: err}
	}
	return nil
}

// formatSeconds renders a seconds value the way ffmpeg expects, without
// a fixed number of decimals.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
