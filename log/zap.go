package log

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stitch-ai/internal/appdirs"
)

// Logger 全局日志器，进程启动时由 InitLogger 赋值
var Logger *zap.Logger

const logFileName = "app.log"

var appDirsResolver = appdirs.Resolve

// InitLogger 同时落盘和打终端：文件是 debug 级 JSON，终端是 info 级文本。
// 日志目录拿不到属于启动期致命问题，直接 panic。
func InitLogger() {
	logDir, err := resolveLogDir()
	if err != nil {
		panic("无法解析日志目录: " + err.Error())
	}
	if err = os.MkdirAll(logDir, 0o755); err != nil {
		panic("无法创建日志目录: " + err.Error())
	}

	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		panic("无法打开日志文件: " + err.Error())
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	Logger = zap.New(zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), zap.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), zap.InfoLevel),
	), zap.AddCaller())
}

func resolveLogDir() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	if logDir := strings.TrimSpace(dirs.LogDir); logDir != "" {
		return logDir, nil
	}
	return ".", nil
}

func GetLogger() *zap.Logger {
	return Logger
}
