package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"stitch-ai/internal/appcore"
	"stitch-ai/internal/dto"
	"stitch-ai/internal/storage"
	"stitch-ai/internal/types"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"
	"stitch-ai/pkg/util"
)

// StartSequenceTask validates the request, persists a queued task row and
// hands it to the background executor. The call returns as soon as the
// task is accepted; progress is polled through GetTaskStatus.
func (s Service) StartSequenceTask(req dto.StartSequenceTaskReq) (*dto.StartSequenceTaskResData, error) {
	switch req.RenderMode {
	case "", dto.RenderModeTransitions, dto.RenderModeCuts, dto.RenderModeConcat:
	default:
		return nil, apperrors.New(apperrors.CodeInvalidParams,
			fmt.Sprintf("不支持的渲染模式 unsupported render mode: %s", req.RenderMode))
	}

	info, err := os.Stat(req.MetaDir)
	if err != nil || !info.IsDir() {
		return nil, apperrors.New(apperrors.CodeInvalidParams, "元数据目录不可用 meta dir is not a readable directory")
	}
	if req.VideosDir == "" {
		req.VideosDir = req.MetaDir
	}

	taskId := req.ReuseTaskId
	if taskId == "" {
		base := util.SanitizePathName(filepath.Base(filepath.Clean(req.MetaDir)))
		taskId = fmt.Sprintf("%s_%s", util.TruncateRunes(base, 16), util.GenerateRandStringWithUpperLowerNum(4))
	}

	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		outputDir, err = resolveTaskDir(taskId)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "解析任务目录失败 failed to resolve task dir", err)
		}
	}
	if err = os.MkdirAll(outputDir, os.ModePerm); err != nil {
		log.GetLogger().Error("StartSequenceTask MkdirAll err", zap.String("output_dir", outputDir), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "创建输出目录失败 failed to create output dir", err)
	}
	req.OutputDir = outputDir

	// 重试时复用已有记录，清掉上一轮的失败痕迹
	var task *types.SequenceTask
	if req.ReuseTaskId != "" {
		task, _ = storage.GetTask(taskId)
	}
	if task == nil {
		task = &types.SequenceTask{TaskId: taskId}
	} else {
		task.FailReason = ""
		task.StatusMsg = "正在重试 Retrying..."
	}
	task.Status = types.TaskStatusQueued
	task.ProcessPercent = 0
	task.MetaDir = req.MetaDir
	task.VideosDir = req.VideosDir
	task.OutputDir = outputDir
	task.RenderMode = req.RenderMode
	task.LoopTrim = req.LoopTrim
	if err = storage.SaveTask(task); err != nil {
		log.GetLogger().Error("StartSequenceTask SaveTask err", zap.String("task_id", taskId), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeDBError, "保存任务失败 Failed to save task", err)
	}

	if s.Runner != nil {
		if err = s.Runner.SubmitSequenceTask(taskId, req); err != nil {
			log.GetLogger().Error("StartSequenceTask submit err", zap.String("task_id", taskId), zap.Error(err))
			task.Status = types.TaskStatusFailed
			task.FailReason = err.Error()
			task.StatusMsg = "任务提交失败 Submit failed"
			_ = storage.SaveTask(task)
			return nil, apperrors.Wrap(apperrors.CodeUnknown, "任务提交失败 failed to submit task", err)
		}
	} else {
		go func() {
			_ = s.RunSequencePipeline(context.Background(), taskId, req)
		}()
	}

	log.GetLogger().Info("sequence task accepted",
		zap.String("task_id", taskId),
		zap.String("meta_dir", req.MetaDir),
		zap.String("render_mode", req.RenderMode),
		zap.Bool("loop_trim", req.LoopTrim))
	return &dto.StartSequenceTaskResData{TaskId: taskId}, nil
}

// GetTaskStatus returns the current snapshot of a task. Failed tasks are
// returned as data, the fail reason travels in the payload.
func (s Service) GetTaskStatus(req dto.GetSequenceTaskReq) (*dto.GetSequenceTaskResData, error) {
	task, err := storage.GetTask(req.TaskId)
	if err != nil {
		log.GetLogger().Error("GetTaskStatus GetTask err", zap.String("task_id", req.TaskId), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "任务不存在 task not found", err)
	}
	return taskResData(task), nil
}

func taskResData(task *types.SequenceTask) *dto.GetSequenceTaskResData {
	res := &dto.GetSequenceTaskResData{
		TaskId:         task.TaskId,
		Status:         task.Status,
		Stage:          appcore.StageForTask(task.Status, task.ProcessPercent).String(),
		ProcessPercent: task.ProcessPercent,
		StatusMsg:      task.StatusMsg,
		ManifestPath:   task.ManifestPath,
		OutputPath:     task.OutputPath,
		ClipCount:      task.ClipCount,
		TotalDuration:  task.TotalDuration,
		AvgScore:       task.AvgScore,
		TimeSaved:      task.TimeSaved,
		FallbackTiming: task.FallbackTiming,
		FailReason:     task.FailReason,
	}
	// 自定义输出目录不在任务根下时没有别名地址，字段留空
	if task.ManifestPath != "" {
		if alias, err := resolveTaskDownloadPath(task.ManifestPath); err == nil {
			res.ManifestUrl = "/api/file/" + alias
		}
	}
	if task.OutputPath != "" {
		if alias, err := resolveTaskDownloadPath(task.OutputPath); err == nil {
			res.OutputUrl = "/api/file/" + alias
		}
	}
	return res
}
