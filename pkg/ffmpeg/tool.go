package ffmpeg

// Tool invokes ffmpeg and ffprobe with the binary paths resolved at
// startup. It implements the frame-sampling, duration-probing, and
// render collaborators of the sequencing pipeline.
type Tool struct {
	ffmpegPath  string
	ffprobePath string
}

func NewTool(ffmpegPath, ffprobePath string) *Tool {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Tool{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}
