package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"stitch-ai/internal/appdirs"
)

var appDirsResolver = appdirs.Resolve

func resolveTaskRoot() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.TaskRootFor(dirs), nil
}

func resolveTaskDir(taskID string) (string, error) {
	if strings.TrimSpace(taskID) == "" {
		return "", errors.New("task id is empty")
	}

	taskRoot, err := resolveTaskRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(taskRoot, taskID), nil
}

// resolveTaskDownloadPath maps a task artifact (manifest, rendered
// video) onto the alias path served by the download endpoint. Artifacts
// written outside the task root have no alias.
func resolveTaskDownloadPath(localPath string) (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}

	taskRoot := appdirs.TaskRootFor(dirs)
	rel, err := filepath.Rel(taskRoot, filepath.Clean(localPath))
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", fmt.Errorf("task artifact %q is the task root, not a file", localPath)
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("task artifact %q is outside task root %q", localPath, taskRoot)
	}
	return filepath.ToSlash(filepath.Join(appdirs.TaskRootName, rel)), nil
}

// resolveFrameScratchDir is where sampled frames land during loop
// detection and clip analysis. Per task so a delete cleans it up.
func resolveFrameScratchDir(taskID string) (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return filepath.Join(appdirs.CacheRootFor(dirs), "frames", taskID), nil
}
