package server

import (
	"fmt"

	"stitch-ai/config"
	"stitch-ai/internal/router"
	"stitch-ai/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartBackend blocks serving the HTTP API until the listener fails.
func StartBackend() error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.Default()

	router.SetupRouter(engine)

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	log.GetLogger().Info("后端服务启动 Backend server listening", zap.String("addr", addr))
	return engine.Run(addr)
}
