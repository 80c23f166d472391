package main

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"stitch-ai/config"
	"stitch-ai/internal/deps"
	"stitch-ai/internal/server"
	"stitch-ai/internal/storage"
	"stitch-ai/log"
)

func main() {
	if handled, exitCode := handleCLIFlags(); handled {
		os.Exit(exitCode)
	}

	log.InitLogger()

	err := run()
	_ = log.GetLogger().Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run keeps the boot sequence in one place so main can flush logs
// before exiting.
func run() error {
	if !config.LoadConfig() {
		return errors.New("config load failed")
	}
	if err := config.CheckConfig(); err != nil {
		log.GetLogger().Error("配置校验失败 config check failed", zap.Error(err))
		return err
	}

	if err := storage.InitDB(); err != nil {
		log.GetLogger().Error("数据库初始化失败 database init failed", zap.Error(err))
		return err
	}

	// 上个进程异常退出留下的 running 任务置为失败
	if count, err := storage.MarkStaleTasks(); err != nil {
		log.GetLogger().Warn("清理残留任务失败 failed to mark stale tasks", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("已将残留任务置为失败 marked stale tasks as failed", zap.Int64("count", count))
	}

	if err := deps.CheckDependency(); err != nil {
		log.GetLogger().Error("依赖环境准备失败 dependency check failed", zap.Error(err))
		return err
	}

	if err := server.StartBackend(); err != nil {
		log.GetLogger().Error("后端服务启动失败 backend failed", zap.Error(err))
		return err
	}

	return nil
}
