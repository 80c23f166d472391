package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"stitch-ai/config"
	"stitch-ai/internal/storage"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"

	"go.uber.org/zap"
)

// 依赖解析结果的三个维度：层级、状态、来源
type (
	DependencyTier   string
	DependencyStatus string
	DependencySource string
)

const (
	DependencyTierMust     DependencyTier = "must"
	DependencyTierOptional DependencyTier = "optional"

	DependencyStatusOK      DependencyStatus = "ok"
	DependencyStatusMissing DependencyStatus = "missing"
	DependencyStatusError   DependencyStatus = "error"

	DependencySourceStorage  DependencySource = "storage"
	DependencySourceLookPath DependencySource = "lookpath"
)

// DependencySpec describes one external binary the pipeline shells out to.
type DependencySpec struct {
	ID      string
	Name    string
	Command string
	Tier    DependencyTier
	// StoragePath 来自配置或安装器写回的位置，空值表示未配置
	StoragePath string
	Hint        string
}

// DependencyState is a spec plus what resolution found on this host.
type DependencyState struct {
	DependencySpec
	ResolvedPath string
	Status       DependencyStatus
	Source       DependencySource
	Error        string
}

// PathResolver 的三个探针都可替换，测试里换成假实现
type PathResolver struct {
	LookPath func(file string) (string, error)
	AbsPath  func(path string) (string, error)
	Stat     func(name string) (os.FileInfo, error)
}

func NewPathResolver() PathResolver {
	return PathResolver{
		LookPath: exec.LookPath,
		AbsPath:  filepath.Abs,
		Stat:     os.Stat,
	}
}

// Resolve 优先使用显式配置的路径，没有配置时在 PATH 上找命令
func (r PathResolver) Resolve(spec DependencySpec) DependencyState {
	state := DependencyState{DependencySpec: spec}

	var resolvedPath string
	var err error
	if configured := strings.TrimSpace(spec.StoragePath); configured != "" {
		state.Source = DependencySourceStorage
		resolvedPath, err = r.resolveConfigured(configured)
		if err != nil {
			// 失败时也尽量带上绝对路径，方便排查
			if absPath, absErr := r.AbsPath(configured); absErr == nil {
				state.ResolvedPath = absPath
			} else {
				state.ResolvedPath = configured
			}
		}
	} else {
		state.Source = DependencySourceLookPath
		resolvedPath, err = r.LookPath(spec.Command)
	}

	if err != nil {
		state.Error = err.Error()
		if isMissingPathError(err) {
			state.Status = DependencyStatusMissing
		} else {
			state.Status = DependencyStatusError
		}
		return state
	}

	state.Status = DependencyStatusOK
	state.ResolvedPath = resolvedPath
	return state
}

// resolveConfigured 先按命令名解析，允许用户把裸命令名写进配置；
// 不在 PATH 上再当作文件路径检查
func (r PathResolver) resolveConfigured(configuredPath string) (string, error) {
	if fromPath, err := r.LookPath(configuredPath); err == nil {
		return fromPath, nil
	}

	abs, err := r.AbsPath(configuredPath)
	if err != nil {
		return "", err
	}
	if _, err := r.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func isMissingPathError(err error) bool {
	if err == nil {
		return false
	}
	// os.PathError 和 exec.Error 都实现 Unwrap，errors.Is 能穿透
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "not found") || strings.Contains(message, "cannot find")
}

func ResolveDependencyStates(specs []DependencySpec, resolver PathResolver) []DependencyState {
	resolved := make([]DependencyState, 0, len(specs))
	for _, spec := range specs {
		resolved = append(resolved, resolver.Resolve(spec))
	}
	return resolved
}

func ResolveDependencyInventory() []DependencyState {
	return ResolveDependencyStates(BuildDependencyInventory(), NewPathResolver())
}

func BuildDependencyInventory() []DependencySpec {
	return []DependencySpec{
		{
			ID:          DependencyIDFFmpeg,
			Name:        "ffmpeg",
			Command:     "ffmpeg",
			Tier:        DependencyTierMust,
			StoragePath: storage.FfmpegPath,
			Hint:        "Required for frame extraction and video composition.",
		},
		{
			ID:          DependencyIDFFprobe,
			Name:        "ffprobe",
			Command:     "ffprobe",
			Tier:        DependencyTierMust,
			StoragePath: storage.FfprobePath,
			Hint:        "Required for media duration detection.",
		},
	}
}

// CheckDependency resolves the ffmpeg suite at boot and persists the
// resolved locations for exec callers. Missing must-tier binaries abort
// the boot.
func CheckDependency() error {
	if p := strings.TrimSpace(config.Conf.App.FfmpegPath); p != "" {
		storage.FfmpegPath = p
	}
	if p := strings.TrimSpace(config.Conf.App.FfprobePath); p != "" {
		storage.FfprobePath = p
	}
	EnsureManagedDependencyPaths()

	for _, state := range ResolveDependencyInventory() {
		if state.Status != DependencyStatusOK {
			log.GetLogger().Error("依赖不可用 dependency unavailable",
				zap.String("name", state.Name),
				zap.String("status", string(state.Status)),
				zap.String("error", state.Error),
				zap.String("hint", state.Hint))
			if state.Tier == DependencyTierMust {
				return apperrors.WrapWithDetail(apperrors.CodeFfmpegNotFound,
					fmt.Sprintf("缺少必需依赖 missing required dependency: %s", state.Name),
					state.Hint, nil)
			}
			continue
		}

		setStoragePathForDependency(state.ID, state.ResolvedPath)
		log.GetLogger().Info("依赖就绪 dependency ready",
			zap.String("name", state.Name),
			zap.String("path", state.ResolvedPath),
			zap.String("source", string(state.Source)))
	}
	return nil
}

// FormatDependencyReport renders the inventory for console diagnostics.
func FormatDependencyReport(states []DependencyState) string {
	if len(states) == 0 {
		return "No dependencies to diagnose."
	}

	lines := make([]string, 0, 1+len(states)*3)
	lines = append(lines, "Dependency status")
	for _, state := range states {
		resolvedPath := strings.TrimSpace(state.ResolvedPath)
		if resolvedPath == "" {
			resolvedPath = "unknown"
		}
		source := strings.TrimSpace(string(state.Source))
		if source == "" {
			source = "n/a"
		}

		lines = append(lines, fmt.Sprintf("- %s [%s]: %s | path=%s | source=%s",
			state.Name, strings.ToUpper(string(state.Tier)), state.Status, resolvedPath, source))
		if state.Error != "" {
			lines = append(lines, "  error: "+state.Error)
		}
		if state.Hint != "" {
			lines = append(lines, "  hint: "+state.Hint)
		}
	}
	return strings.Join(lines, "\n")
}
