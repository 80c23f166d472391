package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"stitch-ai/internal/dto"
	"stitch-ai/log"
)

const (
	defaultQueueSize   = 128
	defaultConcurrency = 2
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Pipeline 是 Runner 唯一需要的服务能力，状态落库由流水线自己负责
type Pipeline interface {
	RunSequencePipeline(ctx context.Context, taskId string, req dto.StartSequenceTaskReq) error
}

// Config controls in-process task runner behavior.
type Config struct {
	QueueSize   int
	Concurrency int
}

// DefaultConfig returns a single-process-friendly default config.
func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

type job struct {
	taskId string
	req    dto.StartSequenceTaskReq
}

// Runner executes queued sequence tasks on in-memory workers. It is the
// memory-driver counterpart of the redis queue and satisfies
// service.TaskSubmitter. The pipeline must be non-nil.
type Runner struct {
	pipeline Pipeline

	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates a runner and starts its workers immediately.
func New(pipeline Pipeline, cfg Config) *Runner {
	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		pipeline: pipeline,
		jobs:     make(chan job, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		r.wg.Add(1)
		go r.work(i + 1)
	}

	return r
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// SubmitSequenceTask queues a sequence pipeline job. It never blocks:
// a full queue surfaces as ErrQueueFull so the caller can report 拥塞
// instead of hanging an API request.
func (r *Runner) SubmitSequenceTask(taskId string, req dto.StartSequenceTaskReq) error {
	if req.MetaDir == "" {
		return errors.New("sequence task meta dir is required")
	}
	if r.closed.Load() {
		return ErrRunnerStopped
	}

	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case r.jobs <- job{taskId: taskId, req: req}:
		log.GetLogger().Info("[TaskRunner] 任务已入队 task queued",
			zap.String("task_id", taskId))
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) work(id int) {
	defer r.wg.Done()

	for {
		// 关停优先于接新任务
		if r.ctx.Err() != nil {
			return
		}
		select {
		case <-r.ctx.Done():
			return
		case j := <-r.jobs:
			r.run(id, j)
		}
	}
}

func (r *Runner) run(id int, j job) {
	if err := r.pipeline.RunSequencePipeline(r.ctx, j.taskId, j.req); err != nil {
		log.GetLogger().Error("[TaskRunner] 任务失败 task failed",
			zap.Int("worker_id", id),
			zap.String("task_id", j.taskId),
			zap.Error(err))
		return
	}

	log.GetLogger().Info("[TaskRunner] 任务完成 task done",
		zap.Int("worker_id", id),
		zap.String("task_id", j.taskId))
}

// Close cancels in-flight pipelines, waits for workers to exit and
// rejects any further submissions. Jobs still buffered are dropped;
// their rows stay queued in storage.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.wg.Wait()
}
