package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/cnybot/core/config"
	coretelegram "github.com/m3rciful/cnybot/core/telegram"
	tgsender "github.com/m3rciful/cnybot/core/telegram/sender"
	"github.com/m3rciful/cnybot/internal/rates"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BOT_TOKEN", "TELEGRAM_RUN_MODE", "RENDER_EXTERNAL_URL", "WEBHOOK_URL", "PORT",
		"RATES_URL", "RATES_TIMEOUT_SECONDS", "DB_ENABLED", "DB_HOST", "DB_NAME", "DB_USER",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "123:abc"
  admin_id: 9
rates:
  timeout_seconds: 2
database:
  enabled: true
  host: db
  name: cnybot
  user: bot
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
	require.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, rates.DefaultURL, cfg.Rates.URL)
	require.Equal(t, 2, cfg.Rates.TimeoutSeconds)
	require.Equal(t, "5432", cfg.Database.Port)

	t.Setenv("RATES_URL", "http://rates.local/daily.json")
	t.Setenv("DB_ENABLED", "false")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://rates.local/daily.json", cfg.Rates.URL)
	require.False(t, cfg.Database.Enabled)
}

func TestLoadDefaultsAndErrors(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "none.yaml")

	_, err := Load(missing)
	require.Error(t, err, "token is required")

	t.Setenv("BOT_TOKEN", "1:x")
	cfg, err := Load(missing)
	require.NoError(t, err)
	require.Equal(t, int(rates.DefaultTimeout.Seconds()), cfg.Rates.TimeoutSeconds)

	t.Setenv("RATES_TIMEOUT_SECONDS", "-1")
	_, err = Load(missing)
	require.Error(t, err)

	require.NoError(t, os.Unsetenv("RATES_TIMEOUT_SECONDS"))
	t.Setenv("DB_ENABLED", "true")
	_, err = Load(missing)
	require.Error(t, err, "enabled database needs host, name and user")
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "1:x"
	cfg.Telegram.AdminID = 9
	cfg.RateLimit.IntervalMS = 300
	require.NoError(t, cfg.Normalize())

	a := New(cfg, nil)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.Same(t, &cfg.Config, opts.Config)
	require.Equal(t, []string{"/cancel", "/start", "/stats"}, opts.Registry.Names())
	require.Len(t, opts.Routes, 4)

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	require.Equal(t, []string{"recover", "per_user", "logger", "rate_limit", "metrics"}, names)

	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	defer d.Close()
	require.NoError(t, opts.OnStart(context.Background(), coretelegram.Runtime{Dispatcher: d}))
	require.NoError(t, a.Close())
}
