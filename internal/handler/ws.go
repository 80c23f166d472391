package handler

import (
	"net/http"
	"time"

	"stitch-ai/internal/appcore"
	"stitch-ai/internal/response"
	"stitch-ai/internal/storage"
	"stitch-ai/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const progressPushInterval = 500 * time.Millisecond

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 本地工具服务，前端与后端同机部署
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TaskProgressWS pushes progress frames for one task until it reaches a
// terminal stage or the client goes away. Frames are deduplicated, so a
// quiet pipeline stage does not flood the socket.
func (h *Handler) TaskProgressWS(c *gin.Context) {
	taskId := c.Query("task_id")
	if taskId == "" {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "task_id不能为空",
			Data:  nil,
		})
		return
	}
	if _, err := storage.GetTask(taskId); err != nil {
		c.JSON(404, response.Response{
			Error: -1,
			Msg:   "任务不存在",
			Data:  nil,
		})
		return
	}

	conn, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().Error("TaskProgressWS upgrade err", zap.String("task_id", taskId), zap.Error(err))
		return
	}
	defer conn.Close()

	// 客户端断开时 ReadMessage 返回错误
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressPushInterval)
	defer ticker.Stop()

	var lastEvent appcore.JobEvent
	sentAny := false
	for {
		task, err := storage.GetTask(taskId)
		if err != nil {
			log.GetLogger().Warn("TaskProgressWS task lookup failed", zap.String("task_id", taskId), zap.Error(err))
			return
		}

		event := appcore.EventForTask(task)
		if !sentAny || event != lastEvent {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
			lastEvent = event
			sentAny = true
		}
		if appcore.StageForTask(task.Status, task.ProcessPercent).IsTerminal() {
			return
		}

		select {
		case <-ticker.C:
		case <-clientGone:
			return
		}
	}
}
