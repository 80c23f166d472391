package appdirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	PortableEnv = "STITCHAI_PORTABLE"

	appName        = "StitchAI"
	configFileName = "config.toml"
)

// Paths 是应用所有磁盘位置的单一出口，字段除 ConfigFile 外都是目录
type Paths struct {
	Portable   bool
	ConfigDir  string
	ConfigFile string
	LogDir     string
	OutputDir  string
	CacheDir   string
}

// locator 把平台探针收拢成可替换的探测面，测试里逐个换掉
type locator struct {
	goos          string
	getenv        func(string) string
	executable    func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}

func systemLocator() locator {
	return locator{
		goos:          runtime.GOOS,
		getenv:        os.Getenv,
		executable:    os.Executable,
		userConfigDir: os.UserConfigDir,
		userCacheDir:  os.UserCacheDir,
	}
}

// Resolve returns the effective directory layout: portable mode pins
// everything next to the executable, Windows uses the user profile,
// every other OS works out of the working directory.
func Resolve() (Paths, error) {
	return systemLocator().paths()
}

func (l locator) paths() (Paths, error) {
	loc := l.normalized()
	if portableRequested(loc.getenv(PortableEnv)) {
		return loc.portablePaths()
	}
	if loc.goos == "windows" {
		return loc.windowsPaths()
	}
	return workingDirPaths(), nil
}

func (l locator) normalized() locator {
	if l.goos == "" {
		l.goos = runtime.GOOS
	}
	if l.getenv == nil {
		l.getenv = os.Getenv
	}
	if l.executable == nil {
		l.executable = os.Executable
	}
	if l.userConfigDir == nil {
		l.userConfigDir = os.UserConfigDir
	}
	if l.userCacheDir == nil {
		l.userCacheDir = os.UserCacheDir
	}
	return l
}

func (l locator) portablePaths() (Paths, error) {
	executablePath, err := l.executable()
	if err != nil {
		return Paths{}, err
	}

	dataDir := filepath.Join(filepath.Dir(executablePath), "data")
	paths := layoutUnder(filepath.Join(dataDir, "config"), dataDir)
	paths.Portable = true
	return paths, nil
}

func (l locator) windowsPaths() (Paths, error) {
	configRoot, err := requiredDir(l.userConfigDir, "user config dir")
	if err != nil {
		return Paths{}, err
	}
	cacheRoot, err := requiredDir(l.userCacheDir, "user cache dir")
	if err != nil {
		return Paths{}, err
	}
	return layoutUnder(filepath.Join(configRoot, appName), filepath.Join(cacheRoot, appName)), nil
}

func requiredDir(lookup func() (string, error), label string) (string, error) {
	dir, err := lookup()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New(label + " is empty")
	}
	return dir, nil
}

// layoutUnder 在 stateDir 下摆 logs/output/cache，配置目录单独指定
func layoutUnder(configDir, stateDir string) Paths {
	return Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(stateDir, "logs"),
		OutputDir:  filepath.Join(stateDir, "output"),
		CacheDir:   filepath.Join(stateDir, "cache"),
	}
}

// workingDirPaths 开发机和 Linux 服务器直接使用工作目录，
// 任务产物落在 ./tasks 下
func workingDirPaths() Paths {
	return Paths{
		ConfigDir:  "config",
		ConfigFile: filepath.Join("config", configFileName),
		LogDir:     ".",
		OutputDir:  ".",
		CacheDir:   "cache",
	}
}

func portableRequested(value string) bool {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "1", "true":
		return true
	}
	return false
}
