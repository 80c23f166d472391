package ffmpeg

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

var errNonPositiveDuration = errors.New("non-positive duration")

// ProbeDuration reads the container duration in seconds, rounded to
// milliseconds. On failure it returns a *DurationUnavailableError;
// callers substitute the default clip duration rather than failing the
// run.
func (t *Tool) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=nokey=1:noprint_wrappers=1",
		videoPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &DurationUnavailableError{Path: videoPath, Output: string(out), Err: err}
	}

	raw := strings.TrimSpace(string(out))
	dur, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &DurationUnavailableError{Path: videoPath, Output: raw, Err: err}
	}
	if dur <= 0 {
		return 0, &DurationUnavailableError{Path: videoPath, Output: raw, Err: errNonPositiveDuration}
	}
	return math.Round(dur*1000) / 1000, nil
}
