package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(b)
}

func decode(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config yaml broken: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.StorageDir == "" {
		cfg.StorageDir = defaultStorageDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.PollPeriodSec == 0 {
		cfg.PollPeriodSec = defaultPollPeriodSec
	}
	if cfg.HornWindowSec == 0 {
		cfg.HornWindowSec = defaultHornWindowSec
	}
	if cfg.AdminAddr == "" {
		cfg.AdminAddr = defaultAdminAddr
	}
}

func validate(cfg *Config) error {
	if cfg.MastodonInstance == "" {
		return fmt.Errorf("config: mastodon_instance is required")
	}
	if !strings.HasPrefix(cfg.MastodonInstance, "http://") && !strings.HasPrefix(cfg.MastodonInstance, "https://") {
		return fmt.Errorf("config: mastodon_instance must be a base URL, got %q", cfg.MastodonInstance)
	}
	if cfg.MastodonToken == "" {
		return fmt.Errorf("config: mastodon_token is required")
	}
	if cfg.JitsiLink == "" {
		return fmt.Errorf("config: jitsi_link is required")
	}
	if cfg.PollPeriodSec < 0 {
		return fmt.Errorf("config: poll_period must not be negative")
	}
	if cfg.HornWindowSec < 0 {
		return fmt.Errorf("config: horn_window must not be negative")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		// bad level is not fatal, the original bot fell back to info
		log.Printf("config: unknown log_level %q, using info", cfg.LogLevel)
		cfg.LogLevel = defaultLogLevel
	}
	return nil
}

func NewManager(cfg *Config) *Manager {
	m := &Manager{}
	m.current.Store(cfg)
	return m
}

// Manager hands out the active config snapshot. Reloads swap the whole
// pointer so readers never see a half-updated config.
type Manager struct {
	current atomic.Pointer[Config]
}

func (m *Manager) Current() *Config {
	return m.current.Load()
}

// Apply merges a reloaded config onto the running one. Only the
// reloadable subset is taken; identity and storage changes need a
// restart and are reported to the caller.
func (m *Manager) Apply(next *Config) []string {
	cur := m.Current()

	var ignored []string
	if next.MastodonInstance != cur.MastodonInstance {
		ignored = append(ignored, "mastodon_instance")
	}
	if next.MastodonToken != cur.MastodonToken {
		ignored = append(ignored, "mastodon_token")
	}
	if next.StorageDir != cur.StorageDir {
		ignored = append(ignored, "storage_dir")
	}
	if next.AdminAddr != cur.AdminAddr {
		ignored = append(ignored, "admin_addr")
	}
	if next.Streaming != cur.Streaming {
		ignored = append(ignored, "streaming")
	}

	merged := *cur
	merged.JitsiLink = next.JitsiLink
	merged.LogLevel = next.LogLevel
	merged.PollPeriodSec = next.PollPeriodSec
	merged.HornWindowSec = next.HornWindowSec
	m.current.Store(&merged)

	return ignored
}
