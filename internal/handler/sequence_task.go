package handler

import (
	"os"
	"path/filepath"

	"stitch-ai/internal/dto"
	"stitch-ai/internal/response"
	"stitch-ai/internal/storage"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) StartSequenceTask(c *gin.Context) {
	var req dto.StartSequenceTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("StartSequenceTask ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}
	log.GetLogger().Info("StartSequenceTask received request", zap.Any("req", req))

	// 检查配置是否需要重新初始化
	h.reloadServiceIfNeeded()

	data, err := h.Service.StartSequenceTask(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GetSequenceTask(c *gin.Context) {
	var req dto.GetSequenceTaskReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "参数错误",
			Data:  nil,
		})
		return
	}

	// 检查配置是否需要重新初始化
	h.reloadServiceIfNeeded()

	data, err := h.Service.GetTaskStatus(req)
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   err.Error(),
			Data:  nil,
		})
		return
	}
	response.R(c, response.Response{
		Error: 0,
		Msg:   "成功",
		Data:  data,
	})
}

func (h *Handler) GetTaskHistory(c *gin.Context) {
	tasks, err := storage.GetTaskHistory(200) // Increased limit for frontend pagination
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "获取历史记录失败: " + err.Error(),
			Data:  nil,
		})
		return
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "成功",
		Data:  tasks,
	})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "taskId不能为空",
			Data:  nil,
		})
		return
	}

	// 1. Delete files from disk
	for _, dir := range taskDirCandidates(taskId) {
		if err := os.RemoveAll(dir); err != nil {
			log.GetLogger().Error("DeleteTask RemoveAll err", zap.String("path", dir), zap.Error(err))
			// Continue to delete from DB even if file deletion fails
		}
	}

	// 2. Delete from DB
	if err := storage.DeleteTask(taskId); err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "删除记录失败: " + err.Error(),
			Data:  nil,
		})
		return
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "删除成功",
		Data:  nil,
	})
}

// RetryTask restarts a failed task by re-submitting it
func (h *Handler) RetryTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "taskId不能为空",
			Data:  nil,
		})
		return
	}

	task, err := storage.GetTask(taskId)
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "获取任务失败: " + err.Error(),
			Data:  nil,
		})
		return
	}

	// Allow retry of failed tasks (status=3) and completed tasks (status=2) for regeneration
	if task.Status != 3 && task.Status != 2 {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "只能重试失败或已完成的任务",
			Data:  nil,
		})
		return
	}

	// Resume/Retry logic: keep files and the DB row so the task id stays stable
	req := dto.StartSequenceTaskReq{
		MetaDir:     task.MetaDir,
		VideosDir:   task.VideosDir,
		OutputDir:   task.OutputDir,
		RenderMode:  task.RenderMode,
		LoopTrim:    task.LoopTrim,
		ReuseTaskId: task.TaskId,
	}

	// 检查配置是否需要重新初始化
	h.reloadServiceIfNeeded()

	data, err := h.Service.StartSequenceTask(req)
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "重试任务失败: " + err.Error(),
			Data:  nil,
		})
		return
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "任务已重新提交",
		Data:  data,
	})
}

// DownloadManifest serves the newest manifest JSON produced for a task.
func (h *Handler) DownloadManifest(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "taskId不能为空",
			Data:  nil,
		})
		return
	}

	task, err := storage.GetTask(taskId)
	if err != nil {
		c.JSON(404, response.Response{
			Error: -1,
			Msg:   "任务不存在",
			Data:  nil,
		})
		return
	}
	if task.ManifestPath == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "清单尚未生成",
			Data:  nil,
		})
		return
	}
	if _, err := os.Stat(task.ManifestPath); err != nil {
		c.JSON(404, response.Response{
			Error: -1,
			Msg:   "清单文件不存在",
			Data:  nil,
		})
		return
	}
	c.FileAttachment(task.ManifestPath, filepath.Base(task.ManifestPath))
}

func (h *Handler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "未能获取文件",
			Data:  nil,
		})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "未上传任何文件",
			Data:  nil,
		})
		return
	}

	// 保存每个文件
	uploadRoot := preferredUploadRoot()
	var savedFiles []string
	for _, file := range files {
		savePath := filepath.Join(uploadRoot, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, savePath); err != nil {
			response.R(c, response.Response{
				Error: -1,
				Msg:   "文件保存失败: " + file.Filename,
				Data:  nil,
			})
			return
		}
		savedFiles = append(savedFiles, "local:"+savePath)
	}

	response.R(c, response.Response{
		Error: 0,
		Msg:   "文件上传成功",
		Data:  gin.H{"file_path": savedFiles},
	})
}

func (h *Handler) DownloadFile(c *gin.Context) {
	requestedFile := c.Param("filepath")

	localFilePath, status := resolveDownloadPath(requestedFile)
	switch status {
	case resolveBlocked:
		c.JSON(403, response.Response{
			Error: -1,
			Msg:   "非法文件路径",
			Data:  nil,
		})
	case resolveMiss:
		c.JSON(404, response.Response{
			Error: -1,
			Msg:   "文件不存在",
			Data:  nil,
		})
	default:
		c.FileAttachment(localFilePath, filepath.Base(localFilePath))
	}
}
