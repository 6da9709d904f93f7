package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
//
// When URL is empty and PublicBase is set (Render exposes it as RENDER_EXTERNAL_URL),
// the webhook URL is derived as <PublicBase>/webhook/<token>.
type WebhookConfig struct {
	URL        string `yaml:"url" envconfig:"WEBHOOK_URL"`
	PublicBase string `yaml:"public_base" envconfig:"RENDER_EXTERNAL_URL"`
	Listen     string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port       int    `yaml:"port" envconfig:"PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// MetricsConfig controls the Prometheus scrape endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
	Path   string `yaml:"path" envconfig:"METRICS_PATH"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCommand identifies slash-command messages for rate limit exclusions.
	UpdateCommand = "command"
	// UpdateText identifies plain text messages.
	UpdateText = "text"
	// UpdateCallback identifies callback button presses.
	UpdateCallback = "callback"
	// UpdateInlineQuery identifies inline query updates.
	UpdateInlineQuery = "inline_query"
)

const (
	defaultWebhookListen = "0.0.0.0"
	defaultWebhookPort   = 8443
	defaultMetricsPath   = "/metrics"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates lists update kinds that bypass limiting: command, text, callback,
// inline_query.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills dst from the YAML file at path and then overlays environment variables.
// A missing file is not an error: the bot can be configured purely through the environment.
func Decode(path string, dst any) error {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		if strings.TrimSpace(cfg.Webhook.URL) != "" || strings.TrimSpace(cfg.Webhook.PublicBase) != "" {
			rm = RunModeWebhook
		} else {
			rm = RunModeLongpoll
		}
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if err := normalizeWebhook(&cfg.Webhook, cfg.Telegram.Token); err != nil {
			return err
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCommand:     {},
		UpdateText:        {},
		UpdateCallback:    {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: command, text, callback, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}

	return normalizeMetrics(&cfg.Metrics)
}

func normalizeWebhook(wh *WebhookConfig, token string) error {
	wh.URL = strings.TrimSpace(wh.URL)
	if wh.URL == "" {
		base := strings.TrimRight(strings.TrimSpace(wh.PublicBase), "/")
		if base == "" {
			return fmt.Errorf("webhook.url or webhook.public_base is required when telegram.run_mode is 'webhook'")
		}
		wh.URL = base + "/webhook/" + token
	}
	if strings.TrimSpace(wh.Listen) == "" {
		wh.Listen = defaultWebhookListen
	}
	if wh.Port == 0 {
		wh.Port = defaultWebhookPort
	}
	if wh.Port < 0 || wh.Port > 65535 {
		return fmt.Errorf("webhook.port must be within 1..65535")
	}
	return nil
}

func normalizeMetrics(m *MetricsConfig) error {
	m.Listen = strings.TrimSpace(m.Listen)
	if m.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		return fmt.Errorf("invalid metrics.listen %q: %w", m.Listen, err)
	}
	m.Path = strings.TrimSpace(m.Path)
	if m.Path == "" {
		m.Path = defaultMetricsPath
	}
	if !strings.HasPrefix(m.Path, "/") {
		m.Path = "/" + m.Path
	}
	return nil
}
