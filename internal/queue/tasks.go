package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"stitch-ai/internal/dto"
	"stitch-ai/internal/service"
	"stitch-ai/log"
)

// StartWorker blocks serving queued sequence tasks until the server
// stops. Run it on its own goroutine.
func StartWorker(q *Queue, svc *service.Service) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSequenceTask, sequenceTaskHandler(svc))

	log.GetLogger().Info("[Queue] 启动 worker",
		zap.String("redis_addr", q.config.RedisAddr),
		zap.Int("concurrency", q.config.Concurrency))

	return q.server.Run(mux)
}

// sequenceTaskHandler runs one queued pipeline to completion. The
// pipeline does its own status bookkeeping; a returned error hands the
// task back to asynq's retry schedule.
func sequenceTaskHandler(svc *service.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SequenceTaskPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		log.GetLogger().Info("[Queue] 开始处理任务",
			zap.String("task_id", payload.TaskID),
			zap.String("meta_dir", payload.MetaDir))

		req := dto.StartSequenceTaskReq{
			MetaDir:     payload.MetaDir,
			VideosDir:   payload.VideosDir,
			OutputDir:   payload.OutputDir,
			RenderMode:  payload.RenderMode,
			LoopTrim:    payload.LoopTrim,
			ReuseTaskId: payload.TaskID,
		}

		if err := svc.RunSequencePipeline(ctx, payload.TaskID, req); err != nil {
			return err
		}

		log.GetLogger().Info("[Queue] 任务处理完成",
			zap.String("task_id", payload.TaskID))

		return nil
	}
}
