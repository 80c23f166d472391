// Package queue runs sequence tasks through asynq so a redis-backed
// deployment gets retries and persistence across restarts.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"stitch-ai/internal/dto"
	"stitch-ai/log"
)

// TypeSequenceTask 是排序流水线在 asynq 里的任务类型名
const TypeSequenceTask = "sequence:process"

const (
	taskMaxRetry = 3
	taskTimeout  = 30 * time.Minute
)

// SequenceTaskPayload is the wire form of one queued pipeline job.
type SequenceTaskPayload struct {
	TaskID     string `json:"task_id"`
	MetaDir    string `json:"meta_dir"`
	VideosDir  string `json:"videos_dir,omitempty"`
	OutputDir  string `json:"output_dir"`
	RenderMode string `json:"render_mode,omitempty"`
	LoopTrim   bool   `json:"loop_trim"`
}

// QueueConfig holds the redis connection settings for asynq.
type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// Queue enqueues sequence tasks and owns the asynq server that works
// them off. It satisfies service.TaskSubmitter.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	config QueueConfig
}

// NewQueue connects a client and a worker server to the same redis.
func NewQueue(cfg QueueConfig) *Queue {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		// 重试间隔 10s、20s、40s……给外部依赖恢复留时间
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return time.Duration(10<<uint(n)) * time.Second
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.GetLogger().Error("[Queue] 任务执行失败 task attempt failed",
				zap.String("type", task.Type()),
				zap.ByteString("payload", task.Payload()),
				zap.Error(err))
		}),
	})

	return &Queue{
		client: asynq.NewClient(redisOpt),
		server: server,
		config: cfg,
	}
}

// SubmitSequenceTask enqueues one pipeline job, so a Queue can stand in
// wherever a task submitter is expected.
func (q *Queue) SubmitSequenceTask(taskId string, req dto.StartSequenceTaskReq) error {
	payload := SequenceTaskPayload{
		TaskID:     taskId,
		MetaDir:    req.MetaDir,
		VideosDir:  req.VideosDir,
		OutputDir:  req.OutputDir,
		RenderMode: req.RenderMode,
		LoopTrim:   req.LoopTrim,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	info, err := q.client.Enqueue(asynq.NewTask(TypeSequenceTask, data,
		asynq.MaxRetry(taskMaxRetry),
		asynq.Timeout(taskTimeout),
	))
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.GetLogger().Info("[Queue] 任务已入队 task enqueued",
		zap.String("task_id", taskId),
		zap.String("queue_id", info.ID),
		zap.String("queue", info.Queue))

	return nil
}

// Close gracefully shuts down the client and the worker server.
func (q *Queue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	q.server.Shutdown()
	return nil
}
