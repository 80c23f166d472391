package appdirs

import (
	"path/filepath"
	"strings"
)

// 任务产物和上传文件都挂在输出目录下的固定子目录里，
// 文件下载接口按这两个名字做别名
const (
	TaskRootName   = "tasks"
	UploadRootName = "uploads"

	dbFileName = "stitch.db"
)

func TaskRootFor(paths Paths) string {
	return filepath.Join(outputRoot(paths), TaskRootName)
}

func TaskDirFor(paths Paths, taskID string) string {
	return filepath.Join(TaskRootFor(paths), taskID)
}

func UploadRootFor(paths Paths) string {
	return filepath.Join(outputRoot(paths), UploadRootName)
}

// CacheRootFor 返回缓存根目录，未配置时退回 ./cache
func CacheRootFor(paths Paths) string {
	cacheDir := strings.TrimSpace(paths.CacheDir)
	if cacheDir == "" {
		cacheDir = "cache"
	}
	return filepath.Clean(cacheDir)
}

func DBPathFor(paths Paths) string {
	return filepath.Join(CacheRootFor(paths), dbFileName)
}

func outputRoot(paths Paths) string {
	outputDir := strings.TrimSpace(paths.OutputDir)
	if outputDir == "" {
		return "."
	}
	return filepath.Clean(outputDir)
}
