package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/plushpepe/instabot/core/database"
)

// TelegramConfig holds Telegram bot credentials and update-delivery settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// ChannelConfig identifies the channel users must join before using the bot.
type ChannelConfig struct {
	Username string `yaml:"username" envconfig:"CHANNEL_USERNAME"`
	Nickname string `yaml:"nickname" envconfig:"CHANNEL_NICKNAME"`
}

// FetcherConfig configures the external Instagram content-fetch service.
type FetcherConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"FETCHER_BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"FETCHER_API_KEY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"FETCHER_TIMEOUT_SECONDS"`
}

// RateLimitConfig holds the per-user admission policy knobs. HourlyThreshold
// is the single source of truth for the hourly request limit.
type RateLimitConfig struct {
	CooldownSeconds int `yaml:"cooldown_seconds" envconfig:"RATE_LIMIT_COOLDOWN_SECONDS"`
	WindowSeconds   int `yaml:"window_seconds" envconfig:"RATE_LIMIT_WINDOW_SECONDS"`
	HourlyThreshold int `yaml:"hourly_threshold" envconfig:"RATE_LIMIT_HOURLY_THRESHOLD"`
	BlockSeconds    int `yaml:"block_seconds" envconfig:"RATE_LIMIT_BLOCK_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	defaultCooldownSeconds = 3
	defaultWindowSeconds   = 3600
	defaultHourlyThreshold = 500
	defaultBlockSeconds    = 3600
	defaultFetchTimeout    = 30
)

// Config aggregates the full application configuration.
type Config struct {
	Telegram  TelegramConfig      `yaml:"telegram"`
	Webhook   WebhookConfig       `yaml:"webhook"`
	Channel   ChannelConfig       `yaml:"channel"`
	Fetcher   FetcherConfig       `yaml:"fetcher"`
	RateLimit RateLimitConfig     `yaml:"rate_limit"`
	Database  coredatabase.Config `yaml:"database"`
	Logging   LoggingConfig       `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and fills defaults.
// Any error here is fatal at boot: the process must not start half-configured.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram.admin_id is required")
	}

	cfg.Channel.Username = strings.TrimPrefix(strings.TrimSpace(cfg.Channel.Username), "@")
	if cfg.Channel.Username == "" {
		return fmt.Errorf("channel.username is required")
	}
	if strings.TrimSpace(cfg.Channel.Nickname) == "" {
		cfg.Channel.Nickname = "@" + cfg.Channel.Username
	}

	if strings.TrimSpace(cfg.Fetcher.BaseURL) == "" {
		return fmt.Errorf("fetcher.base_url is required")
	}
	if strings.TrimSpace(cfg.Fetcher.APIKey) == "" {
		return fmt.Errorf("fetcher.api_key is required")
	}
	if cfg.Fetcher.TimeoutSeconds < 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be >= 0")
	}
	if cfg.Fetcher.TimeoutSeconds == 0 {
		cfg.Fetcher.TimeoutSeconds = defaultFetchTimeout
	}

	if err := normalizeRunMode(cfg); err != nil {
		return err
	}
	normalizeRateLimit(&cfg.RateLimit)
	return nil
}

func normalizeRunMode(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeRateLimit(rl *RateLimitConfig) {
	if rl.CooldownSeconds <= 0 {
		rl.CooldownSeconds = defaultCooldownSeconds
	}
	if rl.WindowSeconds <= 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
	if rl.HourlyThreshold <= 0 {
		rl.HourlyThreshold = defaultHourlyThreshold
	}
	if rl.BlockSeconds <= 0 {
		rl.BlockSeconds = defaultBlockSeconds
	}
}
