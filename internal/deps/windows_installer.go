package deps

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"stitch-ai/config"
	"stitch-ai/internal/appdirs"
	"stitch-ai/internal/storage"
)

const (
	DependencyIDFFmpeg  = "ffmpeg"
	DependencyIDFFprobe = "ffprobe"
)

// 安装阶段，按出现顺序
const (
	installStagePreparing   = "preparing"
	installStageDownloading = "downloading"
	installStageVerifying   = "verifying"
	installStageExtracting  = "extracting"
	installStageDone        = "done"
)

// ffmpeg 套件：一个压缩包同时带 ffmpeg.exe 和 ffprobe.exe。
// 自动安装目前只覆盖 Windows，其他平台交给系统包管理器。
const (
	ffmpegSuiteVersion = "n7.1.3-40-gcddd06f3b9"
	ffmpegSuiteURL     = "https://github.com/BtbN/FFmpeg-Builds/releases/download/autobuild-2026-02-18-13-03/ffmpeg-n7.1.3-40-gcddd06f3b9-win64-gpl-7.1.zip"
	ffmpegSuiteSHA256  = "8624d6006289c5ca2c1f2f65c19f5812a44261ce9d0fa4c1dc9a45063b3c0735"
)

// InstallProgress is one update pushed to the install callback.
type InstallProgress struct {
	DependencyID string
	Stage        string
	Message      string
	// Downloaded/Total 只在下载阶段有意义，Total 为 0 表示长度未知
	Downloaded int64
	Total      int64
	Percent    float64
}

type InstallProgressCallback func(progress InstallProgress)

// suiteInstaller 把 ffmpeg 套件下载并解压到缓存目录 bin/ 下
type suiteInstaller struct {
	cacheDir   string
	httpClient *http.Client
	url        string
	sha256     string
	progress   InstallProgressCallback
}

func managedExecutables() map[string]string {
	return map[string]string{
		DependencyIDFFmpeg:  "ffmpeg.exe",
		DependencyIDFFprobe: "ffprobe.exe",
	}
}

func normalizeDependencyID(dependencyID string) string {
	return strings.ToLower(strings.TrimSpace(dependencyID))
}

// CanAutoInstallDependency reports whether InstallDependency can fetch the
// binary on this platform.
func CanAutoInstallDependency(dependencyID string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	_, ok := managedExecutables()[normalizeDependencyID(dependencyID)]
	return ok
}

func InstallDependency(dependencyID string, progressCallback InstallProgressCallback) error {
	normalizedID := normalizeDependencyID(dependencyID)
	if !CanAutoInstallDependency(normalizedID) {
		return fmt.Errorf("dependency %q has no automatic installer on %s", dependencyID, runtime.GOOS)
	}

	installer, err := defaultSuiteInstaller()
	if err != nil {
		return err
	}
	installer.progress = progressCallback

	if err = installer.run(context.Background(), normalizedID); err != nil {
		return err
	}
	EnsureManagedDependencyPaths()
	return nil
}

func defaultSuiteInstaller() (*suiteInstaller, error) {
	cacheDir, err := resolveDependencyCacheDir()
	if err != nil {
		return nil, err
	}
	httpClient, err := newDownloadHTTPClient(config.Conf.App.Proxy)
	if err != nil {
		return nil, err
	}
	return &suiteInstaller{
		cacheDir:   cacheDir,
		httpClient: httpClient,
		url:        ffmpegSuiteURL,
		sha256:     ffmpegSuiteSHA256,
	}, nil
}

func resolveDependencyCacheDir() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return appdirs.CacheRootFor(paths), nil
}

func newDownloadHTTPClient(proxyAddr string) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if trimmed := strings.TrimSpace(proxyAddr); trimmed != "" {
		proxyURL, err := neturl.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", trimmed, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Timeout: 30 * time.Minute, Transport: transport}, nil
}

// run 下载并解压套件。目标文件已齐全时直接复用。
func (ins *suiteInstaller) run(ctx context.Context, dependencyID string) error {
	targets := ins.targetPaths()

	if targetsInstalled(targets) {
		adoptTargets(targets)
		ins.emit(InstallProgress{
			DependencyID: dependencyID,
			Stage:        installStageDone,
			Message:      "ffmpeg suite already installed",
			Percent:      1,
		})
		return nil
	}

	if err := os.MkdirAll(filepath.Join(ins.cacheDir, "bin"), 0o755); err != nil {
		return fmt.Errorf("create install root: %w", err)
	}
	ins.emit(InstallProgress{
		DependencyID: dependencyID,
		Stage:        installStagePreparing,
		Message:      fmt.Sprintf("Preparing ffmpeg suite %s", ffmpegSuiteVersion),
	})

	archivePath, err := ins.download(ctx, dependencyID)
	if err != nil {
		return err
	}
	defer os.Remove(archivePath)

	if err = ins.extract(archivePath, targets, dependencyID); err != nil {
		return err
	}

	adoptTargets(targets)
	ins.emit(InstallProgress{
		DependencyID: dependencyID,
		Stage:        installStageDone,
		Message:      "ffmpeg suite installed",
		Percent:      1,
	})
	return nil
}

func (ins *suiteInstaller) targetPaths() map[string]string {
	targets := make(map[string]string, 2)
	for toolID, executable := range managedExecutables() {
		targets[toolID] = filepath.Join(ins.cacheDir, "bin", toolID, executable)
	}
	return targets
}

func targetsInstalled(targets map[string]string) bool {
	for _, path := range targets {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return len(targets) > 0
}

func adoptTargets(targets map[string]string) {
	for toolID, path := range targets {
		setStoragePathForDependency(toolID, path)
	}
}

// download 流式写盘并同步计算 SHA-256，校验失败时删掉下载产物
func (ins *suiteInstaller) download(ctx context.Context, dependencyID string) (string, error) {
	downloadDir := filepath.Join(ins.cacheDir, "bin", "downloads")
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	out, err := os.CreateTemp(downloadDir, "ffmpeg-suite-*.zip")
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	downloadPath := out.Name()
	discard := func() {
		out.Close()
		os.Remove(downloadPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ins.url, nil)
	if err != nil {
		discard()
		return "", err
	}
	resp, err := ins.httpClient.Do(req)
	if err != nil {
		discard()
		return "", fmt.Errorf("download %s: %w", ins.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		discard()
		return "", fmt.Errorf("download %s: unexpected status %s", ins.url, resp.Status)
	}

	hasher := sha256.New()
	tracker := &downloadTracker{
		installer:    ins,
		dependencyID: dependencyID,
		total:        resp.ContentLength,
	}
	if _, err = io.Copy(io.MultiWriter(out, hasher, tracker), resp.Body); err != nil {
		discard()
		return "", fmt.Errorf("write download file: %w", err)
	}
	if err = out.Close(); err != nil {
		os.Remove(downloadPath)
		return "", fmt.Errorf("close download file: %w", err)
	}

	ins.emit(InstallProgress{
		DependencyID: dependencyID,
		Stage:        installStageVerifying,
		Message:      "Verifying archive checksum",
		Downloaded:   tracker.downloaded,
		Total:        tracker.total,
		Percent:      0.85,
	})

	expected := strings.ToLower(strings.TrimSpace(ins.sha256))
	if actual := hex.EncodeToString(hasher.Sum(nil)); expected != "" && actual != expected {
		os.Remove(downloadPath)
		return "", fmt.Errorf("checksum mismatch for ffmpeg suite: expected %s, got %s", expected, actual)
	}
	return downloadPath, nil
}

// downloadTracker 以 io.Writer 身份挂在 MultiWriter 上回报进度，
// 下载阶段映射到 0～0.75 区间
type downloadTracker struct {
	installer    *suiteInstaller
	dependencyID string
	downloaded   int64
	total        int64
	lastEmit     time.Time
}

func (t *downloadTracker) Write(p []byte) (int, error) {
	t.downloaded += int64(len(p))
	finished := t.total > 0 && t.downloaded >= t.total
	if time.Since(t.lastEmit) < 120*time.Millisecond && !finished {
		return len(p), nil
	}

	percent := 0.75
	if t.total > 0 {
		percent = 0.75 * float64(t.downloaded) / float64(t.total)
	}
	t.installer.emit(InstallProgress{
		DependencyID: t.dependencyID,
		Stage:        installStageDownloading,
		Message:      "Downloading ffmpeg suite",
		Downloaded:   t.downloaded,
		Total:        t.total,
		Percent:      percent,
	})
	t.lastEmit = time.Now()
	return len(p), nil
}

// extract 在压缩包里按可执行文件名匹配需要的条目，目录层级不限
func (ins *suiteInstaller) extract(archivePath string, targets map[string]string, dependencyID string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer zipReader.Close()

	if len(zipReader.File) == 0 {
		return fmt.Errorf("zip archive is empty")
	}

	wantByName := make(map[string]string, len(targets))
	for toolID, targetPath := range targets {
		wantByName[strings.ToLower(filepath.Base(targetPath))] = toolID
	}

	extracted := make(map[string]bool, len(targets))
	for i, file := range zipReader.File {
		ins.emit(InstallProgress{
			DependencyID: dependencyID,
			Stage:        installStageExtracting,
			Message:      "Extracting ffmpeg suite",
			Percent:      0.85 + 0.1*float64(i+1)/float64(len(zipReader.File)),
		})
		if file.FileInfo().IsDir() {
			continue
		}
		toolID, ok := wantByName[strings.ToLower(filepath.Base(file.Name))]
		if !ok {
			continue
		}
		if err = unpackZipEntry(file, targets[toolID]); err != nil {
			return err
		}
		extracted[toolID] = true
	}

	var missing []string
	for toolID := range targets {
		if !extracted[toolID] {
			missing = append(missing, toolID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("archive missing executables for: %s", strings.Join(missing, ", "))
	}
	return nil
}

func unpackZipEntry(file *zip.File, targetPath string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %q: %w", file.Name, err)
	}
	defer src.Close()

	if err = os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	dst, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("create target file %q: %w", targetPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy zip entry to %q: %w", targetPath, err)
	}
	if err = os.Chmod(targetPath, 0o755); err != nil {
		return fmt.Errorf("chmod %q: %w", targetPath, err)
	}
	return nil
}

func (ins *suiteInstaller) emit(progress InstallProgress) {
	if ins.progress == nil {
		return
	}
	if progress.Percent < 0 {
		progress.Percent = 0
	}
	if progress.Percent > 1 {
		progress.Percent = 1
	}
	ins.progress(progress)
}

// ResolveManagedDependencyPath 返回套件装好后某个工具的预期位置
func ResolveManagedDependencyPath(dependencyID string) (string, error) {
	normalized := normalizeDependencyID(dependencyID)
	executable, ok := managedExecutables()[normalized]
	if !ok {
		return "", fmt.Errorf("unsupported dependency id %q", dependencyID)
	}
	cacheDir, err := resolveDependencyCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "bin", normalized, executable), nil
}

// EnsureManagedDependencyPaths 把已配置的可用路径或缓存里装好的
// 套件路径写回 storage，供 exec 调用方使用
func EnsureManagedDependencyPaths() {
	for dependencyID := range managedExecutables() {
		if resolved, ok := resolveExistingBinaryPath(getStoragePathForDependency(dependencyID)); ok {
			setStoragePathForDependency(dependencyID, resolved)
			continue
		}

		cached, err := ResolveManagedDependencyPath(dependencyID)
		if err != nil {
			continue
		}
		if _, err := os.Stat(cached); err != nil {
			continue
		}
		setStoragePathForDependency(dependencyID, cached)
	}
}

func getStoragePathForDependency(dependencyID string) string {
	switch normalizeDependencyID(dependencyID) {
	case DependencyIDFFmpeg:
		return storage.FfmpegPath
	case DependencyIDFFprobe:
		return storage.FfprobePath
	default:
		return ""
	}
}

func setStoragePathForDependency(dependencyID, path string) {
	switch normalizeDependencyID(dependencyID) {
	case DependencyIDFFmpeg:
		storage.FfmpegPath = path
	case DependencyIDFFprobe:
		storage.FfprobePath = path
	}
}

func resolveExistingBinaryPath(configuredPath string) (string, bool) {
	cleaned := strings.TrimSpace(configuredPath)
	if cleaned == "" {
		return "", false
	}
	resolved, err := NewPathResolver().resolveConfigured(cleaned)
	if err != nil {
		return "", false
	}
	return resolved, true
}
