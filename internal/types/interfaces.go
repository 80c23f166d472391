package types

import "context"

// FrameSampler extracts a single frame image from a video at a timestamp.
// Implementations must tolerate timestamps within [0, duration).
type FrameSampler interface {
	SampleFrame(ctx context.Context, videoPath string, ts float64, outPath string) error
}

// DurationProber reports a media file's duration in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
}

// RenderPlan 渲染协作方的输入：输入文件 + filter_complex + 输出标签
type RenderPlan struct {
	Inputs        []string
	FilterComplex string
	VideoLabel    string
	AudioLabel    string
	VideoOnly     bool
	OutputPath    string
}

// Renderer executes a render plan, producing one output media file.
// ConcatCopy joins a concat list without re-encoding.
type Renderer interface {
	Render(ctx context.Context, plan RenderPlan) error
	ConcatCopy(ctx context.Context, listPath, outputPath string) error
}

// FrameAnalyzer 视觉模型客户端：描述单帧画面
type FrameAnalyzer interface {
	DescribeFrame(ctx context.Context, imagePath string) (AttributeSet, error)
}

// Notifier delivers task state callbacks. Failures are logged by callers
// and never fail the task itself.
type Notifier interface {
	NotifyTaskState(ctx context.Context, event TaskStateEvent) error
}
