package ffmpeg

import "fmt"

// FrameExtractionError reports a single failed frame sample. Loop
// detection treats it as zero similarity; other callers decide.
type FrameExtractionError struct {
	Path      string
	Timestamp float64
	Output    string
	Err       error
}

func (e *FrameExtractionError) Error() string {
	return fmt.Sprintf("帧提取失败 frame extraction failed: %s@%.3fs: %v", e.Path, e.Timestamp, e.Err)
}

func (e *FrameExtractionError) Unwrap() error {
	return e.Err
}

// DurationUnavailableError reports a failed duration probe. Callers
// substitute the default clip duration instead of propagating it.
type DurationUnavailableError struct {
	Path   string
	Output string
	Err    error
}

func (e *DurationUnavailableError) Error() string {
	return fmt.Sprintf("时长探测失败 duration unavailable: %s: %v", e.Path, e.Err)
}

func (e *DurationUnavailableError) Unwrap() error {
	return e.Err
}
