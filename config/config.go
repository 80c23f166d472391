package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"stitch-ai/internal/appdirs"
	"stitch-ai/log"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

type Server struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
}

type App struct {
	// SegmentDuration 元数据缺少时间信息时假定的片段时长(秒)
	SegmentDuration int      `toml:"segment_duration" json:"segment_duration"`
	FfmpegPath      string   `toml:"ffmpeg_path" json:"ffmpeg_path"`
	FfprobePath     string   `toml:"ffprobe_path" json:"ffprobe_path"`
	Proxy           string   `toml:"proxy" json:"proxy"`
	ParsedProxy     *url.URL `toml:"-" json:"-"`
}

type Vision struct {
	BaseUrl string `toml:"base_url" json:"base_url"`
	ApiKey  string `toml:"api_key" json:"api_key"`
	Model   string `toml:"model" json:"model"`
	// Timeout 单次视觉分析请求超时(秒)
	Timeout int `toml:"timeout" json:"timeout"`
}

type Sequence struct {
	CutThreshold       float64 `toml:"cut_threshold" json:"cut_threshold"`
	CrossfadeThreshold float64 `toml:"crossfade_threshold" json:"crossfade_threshold"`
	CrossfadeDuration  float64 `toml:"crossfade_duration" json:"crossfade_duration"`
	FadeBlackDuration  float64 `toml:"fade_black_duration" json:"fade_black_duration"`
	LeadMargin         float64 `toml:"lead_margin" json:"lead_margin"`
	TailMargin         float64 `toml:"tail_margin" json:"tail_margin"`
	MinClipDuration    float64 `toml:"min_clip_duration" json:"min_clip_duration"`
}

type Loop struct {
	Enabled             bool    `toml:"enabled" json:"enabled"`
	SimilarityThreshold float64 `toml:"similarity_threshold" json:"similarity_threshold"`
	// Concurrency 循环边界检测的并发片段数
	Concurrency int `toml:"concurrency" json:"concurrency"`
}

type Queue struct {
	// Driver memory 或 redis
	Driver      string `toml:"driver" json:"driver"`
	RedisAddr   string `toml:"redis_addr" json:"redis_addr"`
	Concurrency int    `toml:"concurrency" json:"concurrency"`
}

type Notify struct {
	WebhookUrl string `toml:"webhook_url" json:"webhook_url"`
	// Timeout 回调请求超时(秒)
	Timeout int `toml:"timeout" json:"timeout"`
}

type Config struct {
	Server   Server   `toml:"server" json:"server"`
	App      App      `toml:"app" json:"app"`
	Vision   Vision   `toml:"vision" json:"vision"`
	Sequence Sequence `toml:"sequence" json:"sequence"`
	Loop     Loop     `toml:"loop" json:"loop"`
	Queue    Queue    `toml:"queue" json:"queue"`
	Notify   Notify   `toml:"notify" json:"notify"`
}

var Conf Config

var resolveConfigPath = func() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

// ResolveConfigPath returns the absolute location of config.toml for the
// current layout (portable or per-user).
func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

func defaultConfig() Config {
	return Config{
		Server: Server{
			Host: "127.0.0.1",
			Port: 8888,
		},
		App: App{
			SegmentDuration: 5,
		},
		Vision: Vision{
			Model:   "gpt-4o-mini",
			Timeout: 120,
		},
		Sequence: Sequence{
			CutThreshold:       0.8,
			CrossfadeThreshold: 0.5,
			CrossfadeDuration:  0.5,
			FadeBlackDuration:  0.3,
			LeadMargin:         0.3,
			TailMargin:         0.3,
			MinClipDuration:    1.0,
		},
		Loop: Loop{
			Enabled:             true,
			SimilarityThreshold: 0.85,
			Concurrency:         4,
		},
		Queue: Queue{
			Driver:      "memory",
			RedisAddr:   "127.0.0.1:6379",
			Concurrency: 2,
		},
		Notify: Notify{
			Timeout: 10,
		},
	}
}

// LoadOrCreateConfig loads config.toml into Conf. When the file does not
// exist a default config is written first. Returns true when a new file
// was created.
func LoadOrCreateConfig() (bool, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return false, err
		}
		Conf = defaultConfig()
		if err := SaveConfig(); err != nil {
			return false, err
		}
		log.GetLogger().Info("未找到配置文件，已生成默认配置 Generated default config", zap.String("path", path))
		return true, nil
	}

	if _, err := toml.DecodeFile(path, &Conf); err != nil {
		return false, fmt.Errorf("解析配置文件失败 failed to parse config: %w", err)
	}
	return false, nil
}

// LoadConfig is the boot-time entry. Returns false when the process
// should not continue.
func LoadConfig() bool {
	created, err := LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("加载配置失败 Failed to load config", zap.Error(err))
		return false
	}
	if created {
		log.GetLogger().Info("首次启动使用默认配置，可编辑后重启 Running with default config, edit and restart to customize")
	}
	return true
}

// SaveConfig writes Conf to config.toml, creating parent directories.
func SaveConfig() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

// CheckConfig fills zero values with defaults and validates the result.
func CheckConfig() error {
	defaults := defaultConfig()

	if strings.TrimSpace(Conf.Server.Host) == "" {
		Conf.Server.Host = defaults.Server.Host
	}
	if Conf.Server.Port == 0 {
		Conf.Server.Port = defaults.Server.Port
	}
	if Conf.Server.Port < 0 || Conf.Server.Port > 65535 {
		return fmt.Errorf("无效端口 invalid server port: %d", Conf.Server.Port)
	}

	if Conf.App.SegmentDuration <= 0 {
		Conf.App.SegmentDuration = defaults.App.SegmentDuration
	}
	if trimmed := strings.TrimSpace(Conf.App.Proxy); trimmed != "" {
		proxyUrl, err := url.Parse(trimmed)
		if err != nil {
			return fmt.Errorf("解析代理地址失败 failed to parse proxy %q: %w", trimmed, err)
		}
		Conf.App.ParsedProxy = proxyUrl
	}

	if strings.TrimSpace(Conf.Vision.Model) == "" {
		Conf.Vision.Model = defaults.Vision.Model
	}
	if Conf.Vision.Timeout <= 0 {
		Conf.Vision.Timeout = defaults.Vision.Timeout
	}
	if strings.TrimSpace(Conf.Vision.ApiKey) == "" {
		Conf.Vision.ApiKey = strings.TrimSpace(os.Getenv("STITCHAI_VISION_API_KEY"))
	}

	if Conf.Sequence.CutThreshold <= 0 {
		Conf.Sequence.CutThreshold = defaults.Sequence.CutThreshold
	}
	if Conf.Sequence.CrossfadeThreshold <= 0 {
		Conf.Sequence.CrossfadeThreshold = defaults.Sequence.CrossfadeThreshold
	}
	if Conf.Sequence.CrossfadeDuration <= 0 {
		Conf.Sequence.CrossfadeDuration = defaults.Sequence.CrossfadeDuration
	}
	if Conf.Sequence.FadeBlackDuration <= 0 {
		Conf.Sequence.FadeBlackDuration = defaults.Sequence.FadeBlackDuration
	}
	if Conf.Sequence.LeadMargin < 0 {
		Conf.Sequence.LeadMargin = defaults.Sequence.LeadMargin
	}
	if Conf.Sequence.TailMargin < 0 {
		Conf.Sequence.TailMargin = defaults.Sequence.TailMargin
	}
	if Conf.Sequence.MinClipDuration <= 0 {
		Conf.Sequence.MinClipDuration = defaults.Sequence.MinClipDuration
	}
	if Conf.Sequence.CutThreshold > 1 || Conf.Sequence.CrossfadeThreshold > 1 {
		return fmt.Errorf("转场阈值超出范围 transition thresholds must be within (0,1]")
	}
	if Conf.Sequence.CutThreshold < Conf.Sequence.CrossfadeThreshold {
		return fmt.Errorf("转场阈值顺序错误 cut_threshold must be >= crossfade_threshold")
	}

	if Conf.Loop.SimilarityThreshold <= 0 {
		Conf.Loop.SimilarityThreshold = defaults.Loop.SimilarityThreshold
	}
	if Conf.Loop.SimilarityThreshold > 1 {
		return fmt.Errorf("相似度阈值超出范围 loop similarity_threshold must be within (0,1]")
	}
	if Conf.Loop.Concurrency <= 0 {
		Conf.Loop.Concurrency = defaults.Loop.Concurrency
	}

	if strings.TrimSpace(Conf.Queue.Driver) == "" {
		Conf.Queue.Driver = defaults.Queue.Driver
	}
	if Conf.Queue.Driver != "memory" && Conf.Queue.Driver != "redis" {
		return fmt.Errorf("未知队列驱动 unknown queue driver: %s", Conf.Queue.Driver)
	}
	if Conf.Queue.Driver == "redis" && strings.TrimSpace(Conf.Queue.RedisAddr) == "" {
		Conf.Queue.RedisAddr = defaults.Queue.RedisAddr
	}
	if Conf.Queue.Concurrency <= 0 {
		Conf.Queue.Concurrency = defaults.Queue.Concurrency
	}

	if Conf.Notify.Timeout <= 0 {
		Conf.Notify.Timeout = defaults.Notify.Timeout
	}

	if strings.TrimSpace(Conf.Vision.ApiKey) == "" {
		log.GetLogger().Warn("未配置视觉模型密钥，将使用基础元数据生成 Vision API key not set, falling back to probe-based metadata")
	}
	return nil
}
