package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Build metadata, stamped via -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// Config is the on-disk server configuration (avcapture-server.yaml).
type Config struct {
	ListenAddr string `yaml:"listen_address"`
	Port       string `yaml:"port"`

	RedisAddr string `yaml:"redis_address"`
	RedisDB   int    `yaml:"redis_db"`

	// BundleDir holds fallback copies of ffmpeg/ffplay/ffprobe used when the
	// binaries are not found on PATH.
	BundleDir string `yaml:"bundle_dir"`

	// RecordingsDir receives recordings started without an explicit output path.
	RecordingsDir string `yaml:"recordings_dir"`

	DevicePollInterval time.Duration `yaml:"device_poll_interval"`
	PreviewDebounce    time.Duration `yaml:"preview_debounce"`
	InterruptGrace     time.Duration `yaml:"interrupt_grace"`

	// MaxSessions caps concurrently running processes (0 = unlimited).
	MaxSessions int64 `yaml:"max_sessions"`

	// WatchSleep enables logind PrepareForSleep subscription over D-Bus.
	WatchSleep bool `yaml:"watch_sleep"`
}

// Default returns the configuration used for any field the file leaves unset.
func Default() Config {
	return Config{
		ListenAddr:         "127.0.0.1",
		Port:               "8090",
		RedisAddr:          "localhost:6379",
		BundleDir:          "/usr/local/share/avcapture/bin",
		DevicePollInterval: 2 * time.Second,
		PreviewDebounce:    150 * time.Millisecond,
		InterruptGrace:     5 * time.Second,
		WatchSleep:         true,
	}
}

// Load reads path and overlays it on Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return errors.New("port must be set")
	}
	if c.RedisAddr == "" {
		return errors.New("redis_address must be set")
	}
	if c.DevicePollInterval <= 0 {
		return errors.New("device_poll_interval must be positive")
	}
	if c.PreviewDebounce < 0 {
		return errors.New("preview_debounce must not be negative")
	}
	if c.InterruptGrace <= 0 {
		return errors.New("interrupt_grace must be positive")
	}
	if c.MaxSessions < 0 {
		return errors.New("max_sessions must not be negative")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return c.ListenAddr + ":" + c.Port }
