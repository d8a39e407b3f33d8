// Package config loads chatwarden's process configuration from
// environment variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process-wide configuration, loaded once at startup.
// DetectorParams themselves are not here: they are seeded with a
// stock default and changed at runtime via controller commands, not
// read from the environment.
type Config struct {
	Channels           []string      `env:"CW_CHANNELS" envSeparator:","`
	StreamPollInterval time.Duration `env:"CW_STREAM_POLL_INTERVAL" envDefault:"60s"`

	UserAgent      string `env:"CW_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"`
	BrowserName    string `env:"CW_BROWSER_NAME" envDefault:"Chrome"`
	BrowserVersion string `env:"CW_BROWSER_VERSION" envDefault:"124.0.0.0"`

	RequestsPerSecond float64 `env:"CW_HTTP_RPS" envDefault:"5"`

	LogLevel  string `env:"CW_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CW_LOG_FORMAT" envDefault:"text"`

	DiscordWebhookURL string `env:"CW_DISCORD_WEBHOOK_URL"`
	SlackWebhookURL   string `env:"CW_SLACK_WEBHOOK_URL"`
	AuditDBPath       string `env:"CW_AUDIT_DB_PATH"`

	EventFeedAddr  string `env:"CW_EVENT_FEED_ADDR"`
	ConsoleEnabled bool   `env:"CW_CONSOLE" envDefault:"false"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
