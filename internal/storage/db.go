package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stitch-ai/internal/appdirs"
	"stitch-ai/internal/types"
	"stitch-ai/log"
)

// DB 全局句柄，InitDB 成功后可用
var DB *gorm.DB

var appDirsResolver = appdirs.Resolve

// InitDB opens the sqlite database under the cache dir and migrates the
// task schema. Query logging stays at Warn: progress updates write rows
// every few seconds and would drown the log at Info.
func InitDB() error {
	dbPath, err := resolveDBPath()
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open database %s: %w", dbPath, err)
	}

	if err := DB.AutoMigrate(&types.SequenceTask{}); err != nil {
		return fmt.Errorf("migrate task schema: %w", err)
	}

	log.GetLogger().Info("数据库就绪 database ready", zap.String("path", dbPath))
	return nil
}

func resolveDBPath() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.DBPathFor(dirs), nil
}
