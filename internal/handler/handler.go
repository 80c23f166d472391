package handler

import (
	"go.uber.org/zap"

	"stitch-ai/config"
	"stitch-ai/internal/deps"
	"stitch-ai/internal/queue"
	"stitch-ai/internal/service"
	"stitch-ai/internal/taskrunner"
	"stitch-ai/log"
)

// configUpdated is flipped by UpdateConfig; the next task-facing request
// rebuilds the service so new binary paths and keys take effect.
var configUpdated = false

// Handler carries the service and its background executor into the gin
// routes.
type Handler struct {
	Service *service.Service
}

// NewHandler builds the service and attaches the executor selected by
// the queue driver: asynq on redis, otherwise the in-process runner.
func NewHandler() *Handler {
	svc := service.NewService()
	attachExecutor(svc)
	return &Handler{Service: svc}
}

func attachExecutor(svc *service.Service) {
	switch config.Conf.Queue.Driver {
	case "redis":
		q := queue.NewQueue(queue.QueueConfig{
			RedisAddr:   config.Conf.Queue.RedisAddr,
			Concurrency: config.Conf.Queue.Concurrency,
		})
		go func() {
			if err := queue.StartWorker(q, svc); err != nil {
				log.GetLogger().Error("queue worker stopped", zap.Error(err))
			}
		}()
		svc.Runner = q
	default:
		svc.Runner = taskrunner.New(svc, taskrunner.Config{
			Concurrency: config.Conf.Queue.Concurrency,
		})
	}
}

// reloadServiceIfNeeded rebuilds the service after a config update while
// keeping the already running executor attached.
func (h *Handler) reloadServiceIfNeeded() {
	if !configUpdated {
		return
	}
	log.GetLogger().Info("检测到配置更新，重新初始化服务")
	if err := deps.CheckDependency(); err != nil {
		log.GetLogger().Error("依赖检查失败 dependency check failed", zap.Error(err))
	}
	runner := h.Service.Runner
	h.Service = service.NewService()
	h.Service.Runner = runner
	configUpdated = false
}
