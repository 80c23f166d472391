package handler

import (
	"stitch-ai/config"
	"stitch-ai/internal/response"
	"stitch-ai/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) GetConfig(c *gin.Context) {
	response.R(c, response.Response{
		Error: 0,
		Msg:   "成功",
		Data:  config.Conf,
	})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var req config.Config
	if err := c.ShouldBindJSON(&req); err != nil {
		response.R(c, response.Response{
			Error: -1,
			Msg:   "参数错误: " + err.Error(),
			Data:  nil,
		})
		return
	}

	// 校验失败时回滚到旧配置
	previous := config.Conf
	config.Conf = req
	if err := config.CheckConfig(); err != nil {
		config.Conf = previous
		response.R(c, response.Response{
			Error: -1,
			Msg:   "配置校验失败: " + err.Error(),
			Data:  nil,
		})
		return
	}

	if err := config.SaveConfig(); err != nil {
		log.GetLogger().Error("UpdateConfig SaveConfig err", zap.Error(err))
		response.R(c, response.Response{
			Error: -1,
			Msg:   "配置保存失败: " + err.Error(),
			Data:  nil,
		})
		return
	}

	// 下一个任务类请求会带着新配置重建服务
	configUpdated = true
	log.GetLogger().Info("配置已更新 Config updated")

	response.R(c, response.Response{
		Error: 0,
		Msg:   "配置已更新",
		Data:  config.Conf,
	})
}
