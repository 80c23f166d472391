package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stitch-ai/config"
	"stitch-ai/internal/appcore"
	"stitch-ai/internal/dto"
	"stitch-ai/internal/loopdetect"
	"stitch-ai/internal/manifest"
	"stitch-ai/internal/metadata"
	"stitch-ai/internal/sequence"
	"stitch-ai/internal/storage"
	"stitch-ai/internal/types"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"
	"stitch-ai/pkg/ffmpeg"
)

// Artifact names inside the task output dir, kept stable so downstream
// automation can find them.
const (
	manifestFileName     = "smart_manifest.json"
	loopManifestFileName = "smart_manifest_loop_trimmed.json"
	concatListFileName   = "concat.txt"

	outputTransitions = "combined_smart.mp4"
	outputLoopTrimmed = "combined_smooth_loops.mp4"
	outputCuts        = "combined_cuts.mp4"
	outputConcat      = "combined.mp4"
)

// RunSequencePipeline executes one task end to end: load and normalize
// metadata, order the clips, write the manifest, optionally trim loop
// boundaries and render. It is synchronous; the task runner and the queue
// workers call it on their own goroutines. Every stage checkpoint lands
// in the task row, so polling clients see progress as it happens.
func (s Service) RunSequencePipeline(ctx context.Context, taskId string, req dto.StartSequenceTaskReq) (err error) {
	task, err := storage.GetTask(taskId)
	if err != nil {
		log.GetLogger().Error("RunSequencePipeline GetTask err", zap.String("task_id", taskId), zap.Error(err))
		return apperrors.Wrap(apperrors.CodeNotFound, "任务不存在 task not found", err)
	}

	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.GetLogger().Error("RunSequencePipeline panic", zap.Any("panic:", r), zap.Any("stack:", buf))
			err = fmt.Errorf("pipeline panic: %v", r)
			s.failTask(ctx, task, err, "任务异常退出 Task crashed")
		}
	}()

	log.GetLogger().Info("sequence pipeline start", zap.String("task_id", taskId),
		zap.String("meta_dir", req.MetaDir), zap.String("render_mode", req.RenderMode))

	// 元数据加载与规范化
	s.progressTask(task, appcore.PercentLoading, "正在加载元数据 Loading metadata...")
	videosDir := req.VideosDir
	if videosDir == "" {
		videosDir = req.MetaDir
	}
	sources, problems, err := metadata.LoadDir(req.MetaDir)
	if err != nil {
		s.failTask(ctx, task, err, "元数据加载失败 Metadata load failed")
		return err
	}
	normalizer := metadata.NewNormalizer(videosDir, float64(config.Conf.App.SegmentDuration))
	res := normalizer.ResolveBatch(sources)
	res.Problems = append(problems, res.Problems...)
	for _, p := range res.Problems {
		log.GetLogger().Warn("元数据问题 metadata problem", zap.String("task_id", taskId),
			zap.String("file", p.File), zap.String("reason", p.Reason))
	}
	records, fallback, err := normalizer.Finalize(res)
	if err != nil {
		s.failTask(ctx, task, err, "无可用片段 No usable clips")
		return err
	}
	task.ClipCount = len(records)
	task.FallbackTiming = fallback

	// 序列编排
	s.progressTask(task, appcore.PercentSequencing, "正在编排序列 Sequencing clips...")
	th := sequence.Thresholds{
		Cut:               config.Conf.Sequence.CutThreshold,
		Crossfade:         config.Conf.Sequence.CrossfadeThreshold,
		CrossfadeDuration: config.Conf.Sequence.CrossfadeDuration,
		FadeBlackDuration: config.Conf.Sequence.FadeBlackDuration,
	}
	if th == (sequence.Thresholds{}) {
		th = sequence.DefaultThresholds()
	}
	result := sequence.Optimize(records, sequence.NewScorer().Score, th)
	ordered := result.Apply(records)

	// 清单落盘
	s.progressTask(task, appcore.PercentManifest, "正在生成清单 Building manifest...")
	m := manifest.NewBuilder(float64(config.Conf.App.SegmentDuration)).Build(ordered, result.Transitions)
	manifestPath := filepath.Join(req.OutputDir, manifestFileName)
	if err = manifest.Save(m, manifestPath); err != nil {
		s.failTask(ctx, task, err, "清单写入失败 Manifest write failed")
		return err
	}
	task.ManifestPath = manifestPath
	task.TotalDuration = m.TotalDuration
	if m.Optimization != nil {
		task.AvgScore = m.Optimization.AvgTransitionScore
	}
	_ = storage.SaveTask(task)

	// 循环边界修剪
	if req.LoopTrim && config.Conf.Loop.Enabled {
		s.progressTask(task, appcore.PercentRefining, "正在检测循环边界 Detecting loop boundaries...")
		saved, loopPath, loopErr := s.refineLoopBounds(ctx, taskId, m, req.OutputDir)
		if loopErr != nil {
			s.failTask(ctx, task, loopErr, "循环修剪失败 Loop trimming failed")
			return loopErr
		}
		task.TimeSaved = saved
		task.ManifestPath = loopPath
		_ = storage.SaveTask(task)
	}

	// 渲染
	if req.RenderMode != "" {
		s.progressTask(task, appcore.PercentRendering, "正在合成视频 Rendering video...")
		outputPath, renderErr := s.renderManifest(ctx, m, req, task.ManifestPath)
		if renderErr != nil {
			s.failTask(ctx, task, renderErr, "视频合成失败 Render failed")
			return renderErr
		}
		task.OutputPath = outputPath
	}

	s.completeTask(ctx, task)
	log.GetLogger().Info("sequence pipeline end", zap.String("task_id", taskId),
		zap.Int("clips", task.ClipCount), zap.Float64("total_duration", task.TotalDuration))
	return nil
}

// refineLoopBounds probes and samples every reachable clip concurrently,
// then rewrites the manifest with the detected clean-motion windows.
// Returns the total seconds saved and the loop-trimmed manifest path.
func (s Service) refineLoopBounds(ctx context.Context, taskId string, m *manifest.Manifest, outDir string) (float64, string, error) {
	scratchDir, err := resolveFrameScratchDir(taskId)
	if err != nil {
		return 0, "", apperrors.Wrap(apperrors.CodeLoopDetectFailed, "解析缓存目录失败 failed to resolve scratch dir", err)
	}
	if err = os.MkdirAll(scratchDir, os.ModePerm); err != nil {
		return 0, "", apperrors.Wrap(apperrors.CodeFileWriteError, "创建缓存目录失败 failed to create scratch dir", err)
	}
	defer os.RemoveAll(scratchDir)

	detector := loopdetect.NewDetector(s.Sampler, loopdetect.Options{
		SimilarityThreshold: config.Conf.Loop.SimilarityThreshold,
		WorkDir:             scratchDir,
	})

	refs := make([]*manifest.LoopRefinement, len(m.Items))
	g, gctx := errgroup.WithContext(ctx)
	concurrency := config.Conf.Loop.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i, it := range m.Items {
		i, it := i, it
		if _, statErr := os.Stat(it.Path); statErr != nil {
			log.GetLogger().Warn("片段文件缺失，跳过循环检测 clip missing, skipping loop pass",
				zap.String("task_id", taskId), zap.String("path", it.Path))
			continue
		}
		g.Go(func() error {
			duration, probeErr := s.Prober.ProbeDuration(gctx, it.Path)
			if probeErr != nil {
				log.GetLogger().Warn("时长探测失败，使用默认时长 probe failed, using default duration",
					zap.String("task_id", taskId), zap.String("path", it.Path), zap.Error(probeErr))
				duration = manifest.DefaultClipSeconds
			}
			bounds := detector.Detect(gctx, it.Path, duration)
			refs[i] = &manifest.LoopRefinement{
				Index:            i,
				OriginalDuration: duration,
				Bounds:           bounds,
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, "", err
	}

	kept := make([]manifest.LoopRefinement, 0, len(refs))
	for _, r := range refs {
		if r != nil {
			kept = append(kept, *r)
		}
	}
	saved := manifest.ApplyLoopBounds(m, kept)

	loopPath := filepath.Join(outDir, loopManifestFileName)
	if err = manifest.Save(m, loopPath); err != nil {
		return 0, "", err
	}
	log.GetLogger().Info("loop trimming done", zap.String("task_id", taskId),
		zap.Int("clips", len(kept)), zap.Float64("time_saved", saved))
	return saved, loopPath, nil
}

// renderManifest picks the assembly strategy for the requested mode and
// returns the rendered output path.
func (s Service) renderManifest(ctx context.Context, m *manifest.Manifest, req dto.StartSequenceTaskReq, manifestPath string) (string, error) {
	switch req.RenderMode {
	case dto.RenderModeTransitions:
		outputPath := filepath.Join(req.OutputDir, outputTransitions)
		planner := ffmpeg.PlanTransitions
		if m.LoopDetection != nil {
			outputPath = filepath.Join(req.OutputDir, outputLoopTrimmed)
			planner = ffmpeg.PlanLoopTrimmed
		}
		plan, err := planner(m, outputPath)
		if err != nil {
			return "", err
		}
		return outputPath, s.Renderer.Render(ctx, plan)

	case dto.RenderModeCuts:
		outputPath := filepath.Join(req.OutputDir, outputCuts)
		plan, err := ffmpeg.PlanCleanCuts(m, outputPath)
		if err != nil {
			return "", err
		}
		return outputPath, s.Renderer.Render(ctx, plan)

	case dto.RenderModeConcat:
		margins := manifest.MarginOptions{
			Lead:   config.Conf.Sequence.LeadMargin,
			Tail:   config.Conf.Sequence.TailMargin,
			MinDur: config.Conf.Sequence.MinClipDuration,
		}
		if margins == (manifest.MarginOptions{}) {
			margins = manifest.DefaultMargins()
		}
		if dropped := manifest.ApplyMargins(m, margins); dropped > 0 {
			log.GetLogger().Info("安全边距丢弃过短片段 margins dropped short items", zap.Int("dropped", dropped))
		}
		if len(m.Items) == 0 {
			return "", apperrors.New(apperrors.CodeNoUsableClips, "修剪后没有可拼接的片段 no items left after margin trim")
		}
		if _, err := manifest.SaveWithBackup(m, manifestPath); err != nil {
			return "", err
		}
		listPath := filepath.Join(req.OutputDir, concatListFileName)
		if err := manifest.WriteConcatList(m, listPath); err != nil {
			return "", err
		}
		outputPath := filepath.Join(req.OutputDir, outputConcat)
		return outputPath, s.Renderer.ConcatCopy(ctx, listPath, outputPath)
	}
	return "", nil
}

func (s Service) progressTask(task *types.SequenceTask, percent uint8, statusMsg string) {
	task.Status = types.TaskStatusRunning
	task.ProcessPercent = percent
	task.StatusMsg = statusMsg
	_ = storage.SaveTask(task)
}

func (s Service) failTask(ctx context.Context, task *types.SequenceTask, cause error, statusMsg string) {
	log.GetLogger().Error("sequence task failed", zap.String("task_id", task.TaskId), zap.Error(cause))
	task.Status = types.TaskStatusFailed
	task.FailReason = cause.Error()
	task.StatusMsg = statusMsg
	if err := storage.SaveTask(task); err != nil {
		log.GetLogger().Error("failTask SaveTask err", zap.String("task_id", task.TaskId), zap.Error(err))
	}
	s.notifyTaskState(ctx, task)
}

func (s Service) completeTask(ctx context.Context, task *types.SequenceTask) {
	task.Status = types.TaskStatusSuccess
	task.ProcessPercent = appcore.PercentDone
	task.StatusMsg = "任务完成 Completed"
	if err := storage.SaveTask(task); err != nil {
		log.GetLogger().Error("completeTask SaveTask err", zap.String("task_id", task.TaskId), zap.Error(err))
	}
	s.notifyTaskState(ctx, task)
}

// 回调失败只记日志，不改变任务结果
func (s Service) notifyTaskState(ctx context.Context, task *types.SequenceTask) {
	if s.Notifier == nil {
		return
	}
	event := types.TaskStateEvent{
		TaskId:       task.TaskId,
		Status:       task.Status,
		StatusMsg:    task.StatusMsg,
		ManifestPath: task.ManifestPath,
		OutputPath:   task.OutputPath,
		FailReason:   task.FailReason,
	}
	if err := s.Notifier.NotifyTaskState(ctx, event); err != nil {
		log.GetLogger().Error("任务回调失败 task state webhook failed",
			zap.String("task_id", task.TaskId), zap.Error(err))
	}
}
