package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BOT_TOKEN", "TELEGRAM_ADMIN_ID", "TELEGRAM_RUN_MODE", "TELEGRAM_LONGPOLL_TIMEOUT_SECONDS",
	"WEBHOOK_URL", "RENDER_EXTERNAL_URL", "WEBHOOK_LISTEN", "PORT",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_PROFILE", "RATE_LIMIT_INTERVAL_MS", "RATE_LIMIT_EXCLUDE_UPDATES",
	"METRICS_LISTEN", "METRICS_PATH",
}

// clearEnv unsets every variable the loader reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLWithEnvOverlay(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  token: " 123:yaml "
  admin_id: 42
logging:
  level: debug
rate_limit:
  interval_ms: 500
  exclude_updates: [" Command "]
metrics:
  listen: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "123:yaml", cfg.Telegram.Token)
	require.Equal(t, int64(42), cfg.Telegram.AdminID)
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, []string{"command"}, cfg.RateLimit.ExcludeUpdates)
	require.Equal(t, "/metrics", cfg.Metrics.Path)

	t.Setenv("BOT_TOKEN", "456:env")
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "456:env", cfg.Telegram.Token)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadEnvOnlyRenderWebhook(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("RENDER_EXTERNAL_URL", "https://cnybot.onrender.com/")
	t.Setenv("PORT", "10000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
	require.Equal(t, "https://cnybot.onrender.com/webhook/123:abc", cfg.Webhook.URL)
	require.Equal(t, "0.0.0.0", cfg.Webhook.Listen)
	require.Equal(t, 10000, cfg.Webhook.Port)
}

func TestNormalizeErrors(t *testing.T) {
	cases := map[string]Config{
		"missing token":     {},
		"bad run mode":      {Telegram: TelegramConfig{Token: "t", RunMode: "socket"}},
		"webhook no url":    {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}},
		"bad exclude":       {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"message"}}},
		"negative interval": {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{IntervalMS: -1}},
		"bad metrics":       {Telegram: TelegramConfig{Token: "t"}, Metrics: MetricsConfig{Listen: "9090"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, Normalize(&cfg))
		})
	}
	require.Error(t, Normalize(nil))
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}
	require.NoError(t, Normalize(&cfg))
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)

	cfg = Config{Telegram: TelegramConfig{Token: "t"}, Webhook: WebhookConfig{URL: "https://x/hook", Port: 8080}}
	require.NoError(t, Normalize(&cfg))
	require.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
	require.Equal(t, "https://x/hook", cfg.Webhook.URL)
}

func TestDecodeBadYAML(t *testing.T) {
	clearEnv(t)
	var cfg Config
	require.Error(t, Decode(writeConfig(t, "telegram: [oops"), &cfg))
}
