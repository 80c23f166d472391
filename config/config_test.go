package config

import (
	"os"
	"path/filepath"
	"testing"

	"stitch-ai/log"

	"github.com/BurntSushi/toml"
)

// initTestLogger points the logger at a temp dir so create/load paths can log.
func initTestLogger(t *testing.T, tmp string) {
	t.Helper()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("Chdir(tmp): %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	log.InitLogger()
}

func stubConfigPath(t *testing.T, path string) {
	t.Helper()
	old := resolveConfigPath
	resolveConfigPath = func() (string, error) { return path, nil }
	t.Cleanup(func() { resolveConfigPath = old })
}

func decodeConfigFile(t *testing.T, path string) Config {
	t.Helper()
	var got Config
	if _, err := toml.DecodeFile(path, &got); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return got
}

func TestLoadOrCreateConfigMissingCreatesDefault(t *testing.T) {
	tmp := t.TempDir()
	initTestLogger(t, tmp)

	configPath := filepath.Join(tmp, "config", "config.toml")
	stubConfigPath(t, configPath)

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if !created {
		t.Fatalf("LoadOrCreateConfig() created=false, want true")
	}

	got := decodeConfigFile(t, configPath)
	defaults := defaultConfig()
	if got.Server.Host != defaults.Server.Host || got.Server.Port != defaults.Server.Port {
		t.Fatalf("generated server section = %+v, want %+v", got.Server, defaults.Server)
	}
	if got.App.SegmentDuration != defaults.App.SegmentDuration {
		t.Fatalf("generated segment duration = %d, want %d", got.App.SegmentDuration, defaults.App.SegmentDuration)
	}
	if got.Loop.SimilarityThreshold != defaults.Loop.SimilarityThreshold {
		t.Fatalf("generated loop similarity = %v, want %v", got.Loop.SimilarityThreshold, defaults.Loop.SimilarityThreshold)
	}
	if got.Queue.Driver != "memory" {
		t.Fatalf("generated queue driver = %q, want %q", got.Queue.Driver, "memory")
	}
}

func TestSaveConfigCreatesParentDirs(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "nested", "conf", "dir", "config.toml")
	stubConfigPath(t, configPath)

	Conf = defaultConfig()
	Conf.Server.Port = 9090
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	got := decodeConfigFile(t, configPath)
	if got.Server.Port != 9090 {
		t.Fatalf("saved server port = %d, want %d", got.Server.Port, 9090)
	}
}

func TestLoadOrCreateConfigLoadsExisting(t *testing.T) {
	tmp := t.TempDir()
	stubConfigPath(t, filepath.Join(tmp, "config.toml"))

	Conf = Config{
		Server: Server{
			Host: "0.0.0.0",
			Port: 9999,
		},
	}
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	Conf = Config{}

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig: %v", err)
	}
	if created {
		t.Fatal("expected created=false when config file exists")
	}

	if Conf.Server.Host != "0.0.0.0" {
		t.Errorf("expected loaded Server.Host=0.0.0.0, got %s", Conf.Server.Host)
	}
	if Conf.Server.Port != 9999 {
		t.Errorf("expected loaded Server.Port=9999, got %d", Conf.Server.Port)
	}
}

func TestCheckConfigFillsDefaults(t *testing.T) {
	tmp := t.TempDir()
	initTestLogger(t, tmp)
	t.Setenv("STITCHAI_VISION_API_KEY", "")

	Conf = Config{}
	if err := CheckConfig(); err != nil {
		t.Fatalf("CheckConfig() error: %v", err)
	}

	if Conf.Server.Host != "127.0.0.1" || Conf.Server.Port != 8888 {
		t.Fatalf("server defaults not applied: %+v", Conf.Server)
	}
	if Conf.App.SegmentDuration != 5 {
		t.Fatalf("segment duration default not applied: %d", Conf.App.SegmentDuration)
	}
	if Conf.Sequence.CutThreshold != 0.8 || Conf.Sequence.CrossfadeThreshold != 0.5 {
		t.Fatalf("sequence defaults not applied: %+v", Conf.Sequence)
	}
	if Conf.Loop.SimilarityThreshold != 0.85 || Conf.Loop.Concurrency != 4 {
		t.Fatalf("loop defaults not applied: %+v", Conf.Loop)
	}
	if Conf.Queue.Driver != "memory" || Conf.Queue.Concurrency != 2 {
		t.Fatalf("queue defaults not applied: %+v", Conf.Queue)
	}
}

func TestCheckConfigRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "unknown queue driver",
			mutate: func(c *Config) { c.Queue.Driver = "kafka" },
		},
		{
			name:   "crossfade threshold above cut threshold",
			mutate: func(c *Config) { c.Sequence.CutThreshold = 0.4; c.Sequence.CrossfadeThreshold = 0.6 },
		},
		{
			name:   "similarity threshold above one",
			mutate: func(c *Config) { c.Loop.SimilarityThreshold = 1.5 },
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			Conf = defaultConfig()
			Conf.Vision.ApiKey = "sk-test"
			tc.mutate(&Conf)
			if err := CheckConfig(); err == nil {
				t.Fatal("CheckConfig() returned nil error")
			}
		})
	}
}
