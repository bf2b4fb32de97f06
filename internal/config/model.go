package config

import "time"

type Config struct {
	MastodonInstance string `yaml:"mastodon_instance"`
	MastodonToken    string `yaml:"mastodon_token"`
	JitsiLink        string `yaml:"jitsi_link"`
	StorageDir       string `yaml:"storage_dir"`
	LogLevel         string `yaml:"log_level"`

	PollPeriodSec int    `yaml:"poll_period"`
	HornWindowSec int    `yaml:"horn_window"`
	AdminAddr     string `yaml:"admin_addr"`
	Streaming     bool   `yaml:"streaming"`
}

func (c *Config) PollPeriod() time.Duration {
	return time.Duration(c.PollPeriodSec) * time.Second
}

func (c *Config) HornWindow() time.Duration {
	return time.Duration(c.HornWindowSec) * time.Second
}

const (
	defaultStorageDir    = "/etc/jitsibot/store"
	defaultLogLevel      = "info"
	defaultPollPeriodSec = 15
	defaultHornWindowSec = 1800
	defaultAdminAddr     = "127.0.0.1:7765"
)
