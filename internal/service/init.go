package service

import (
	"time"

	"stitch-ai/config"
	"stitch-ai/internal/dto"
	"stitch-ai/internal/storage"
	"stitch-ai/internal/types"
	"stitch-ai/log"
	"stitch-ai/pkg/ffmpeg"
	"stitch-ai/pkg/notify"
	"stitch-ai/pkg/vision"

	"go.uber.org/zap"
)

// TaskSubmitter hands a persisted task to the background executor. The
// in-process runner and the asynq queue both satisfy it; when nothing is
// wired the service falls back to a plain goroutine.
type TaskSubmitter interface {
	SubmitSequenceTask(taskId string, req dto.StartSequenceTaskReq) error
}

type Service struct {
	Sampler  types.FrameSampler
	Prober   types.DurationProber
	Renderer types.Renderer
	Vision   types.FrameAnalyzer
	Notifier types.Notifier
	Runner   TaskSubmitter
}

func NewService() *Service {
	tool := ffmpeg.NewTool(storage.FfmpegPath, storage.FfprobePath)

	var analyzer types.FrameAnalyzer
	if config.Conf.Vision.ApiKey != "" {
		analyzer = vision.NewClient(
			config.Conf.Vision.BaseUrl,
			config.Conf.Vision.ApiKey,
			config.Conf.Vision.Model,
			config.Conf.App.ParsedProxy,
			time.Duration(config.Conf.Vision.Timeout)*time.Second,
		)
		log.GetLogger().Info("当前选择的视觉模型： ", zap.String("model", config.Conf.Vision.Model))
	}

	return &Service{
		Sampler:  tool,
		Prober:   tool,
		Renderer: tool,
		Vision:   analyzer,
		Notifier: notify.NewWebhookNotifier(config.Conf.Notify.WebhookUrl, time.Duration(config.Conf.Notify.Timeout)*time.Second),
	}
}
