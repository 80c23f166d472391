package handler

import (
	"os"
	"path/filepath"
	"strings"

	"stitch-ai/internal/appdirs"
)

// appDirsResolver is swapped in tests to pin the served roots onto a
// temp directory.
var appDirsResolver = appdirs.Resolve

type resolveStatus int

const (
	resolveHit resolveStatus = iota
	resolveMiss
	resolveBlocked
)

// servedRoot maps a public alias to the directories that may back it.
type servedRoot struct {
	alias string
	dirs  []string
}

func servedRoots() []servedRoot {
	return []servedRoot{
		{alias: appdirs.TaskRootName, dirs: taskRootCandidates()},
		{alias: appdirs.UploadRootName, dirs: uploadRootCandidates()},
		{alias: "static", dirs: []string{"static"}},
	}
}

// resolveDownloadPath maps an aliased request path ("tasks/<id>/...",
// "uploads/<name>", "static/...") onto the first backing directory that
// actually holds the file. 路径越级访问一律拒绝。
func resolveDownloadPath(requested string) (string, resolveStatus) {
	cleaned, safe := normalizeRequestPath(requested)
	if !safe {
		return "", resolveBlocked
	}
	if cleaned == "" {
		return "", resolveMiss
	}

	roots := servedRoots()
	for _, root := range roots {
		rel, matched := splitAlias(cleaned, root.alias)
		if !matched {
			continue
		}
		return findUnder(root.dirs, rel)
	}

	// 没有别名前缀时在所有根目录下找一遍，兼容相对路径请求
	for _, root := range roots {
		if path, status := findUnder(root.dirs, cleaned); status != resolveMiss {
			return path, status
		}
	}
	return "", resolveMiss
}

// normalizeRequestPath strips the leading slash gin keeps on wildcard
// params and cleans the remainder. safe=false 表示出现 .. 越级。
func normalizeRequestPath(requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	requested = strings.TrimPrefix(requested, string(filepath.Separator))
	requested = strings.TrimPrefix(requested, "/")
	if hasParentTraversal(requested) {
		return "", false
	}
	cleaned := filepath.ToSlash(filepath.Clean(requested))
	if cleaned == "." {
		return "", true
	}
	return cleaned, true
}

func splitAlias(requested, alias string) (string, bool) {
	if requested == alias {
		return "", true
	}
	if rest, ok := strings.CutPrefix(requested, alias+"/"); ok {
		return rest, true
	}
	return "", false
}

func findUnder(dirs []string, rel string) (string, resolveStatus) {
	rel = filepath.FromSlash(rel)
	for _, dir := range dirs {
		candidate := filepath.Clean(filepath.Join(dir, rel))
		if !isPathWithinRoot(dir, candidate) {
			return "", resolveBlocked
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, resolveHit
		}
	}
	return "", resolveMiss
}

func taskRootCandidates() []string {
	candidates := make([]string, 0, 2)
	if dirs, err := appDirsResolver(); err == nil {
		candidates = append(candidates, appdirs.TaskRootFor(dirs))
	}
	candidates = append(candidates, appdirs.TaskRootName)
	return uniquePaths(candidates...)
}

func taskDirCandidates(taskID string) []string {
	candidates := make([]string, 0, 2)
	if dirs, err := appDirsResolver(); err == nil {
		candidates = append(candidates, appdirs.TaskDirFor(dirs, taskID))
	}
	candidates = append(candidates, filepath.Join(appdirs.TaskRootName, taskID))
	return uniquePaths(candidates...)
}

func uploadRootCandidates() []string {
	candidates := make([]string, 0, 2)
	if dirs, err := appDirsResolver(); err == nil {
		candidates = append(candidates, appdirs.UploadRootFor(dirs))
	}
	candidates = append(candidates, appdirs.UploadRootName)
	return uniquePaths(candidates...)
}

func preferredUploadRoot() string {
	candidates := uploadRootCandidates()
	if len(candidates) == 0 {
		return appdirs.UploadRootName
	}
	return candidates[0]
}

func uniquePaths(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	paths := make([]string, 0, len(values))
	for _, value := range values {
		cleaned := strings.TrimSpace(value)
		if cleaned == "" {
			continue
		}
		cleaned = filepath.Clean(cleaned)
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

func isPathWithinRoot(root, candidate string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasParentTraversal(path string) bool {
	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
