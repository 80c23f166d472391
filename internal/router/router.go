package router

import (
	"net/http"
	"os"

	"stitch-ai/internal/handler"
	"stitch-ai/log"

	"github.com/gin-gonic/gin"
)

func SetupRouter(r *gin.Engine) {
	api := r.Group("/api")

	hdl := handler.NewHandler()
	{
		api.POST("/sequence/task", hdl.StartSequenceTask)
		api.GET("/sequence/task", hdl.GetSequenceTask)
		api.GET("/sequence/history", hdl.GetTaskHistory)
		api.DELETE("/sequence/task/:taskId", hdl.DeleteTask)
		api.POST("/sequence/task/:taskId/retry", hdl.RetryTask)
		api.GET("/sequence/task/:taskId/manifest", hdl.DownloadManifest)
		api.GET("/sequence/progress/ws", hdl.TaskProgressWS)
		api.POST("/clip/analyze", hdl.AnalyzeClip)
		api.POST("/meta/generate", hdl.GenerateMeta)
		api.POST("/meta/inspect", hdl.InspectScenes)
		api.POST("/manifest/probe", hdl.ProbeManifest)
		api.POST("/file", hdl.UploadFile)
		api.GET("/file/*filepath", hdl.DownloadFile)
		api.HEAD("/file/*filepath", hdl.DownloadFile)
		api.GET("/config", hdl.GetConfig)
		api.POST("/config", hdl.UpdateConfig)
	}

	// 有本地 static 目录才挂载控制台页面
	if _, err := os.Stat("static"); err == nil {
		log.GetLogger().Info("Using local static directory")
		r.Static("/static", "static")
		r.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/static")
		})
	}
}
