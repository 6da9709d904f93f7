package app

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/cnybot/core/bootstrap"
	"github.com/m3rciful/cnybot/core/logger"
	coretelegram "github.com/m3rciful/cnybot/core/telegram"
	"github.com/m3rciful/cnybot/core/telegram/router"
	tgsender "github.com/m3rciful/cnybot/core/telegram/sender"
	"github.com/m3rciful/cnybot/core/telegram/state"
	"github.com/m3rciful/cnybot/internal/bot"
	"github.com/m3rciful/cnybot/internal/conversation"
	"github.com/m3rciful/cnybot/internal/journal"
	"github.com/m3rciful/cnybot/internal/rates"
)

// App holds the assembled bot.
type App struct {
	cfg   *Config
	infra *bootstrap.Result
	bot   *bot.Bot
}

// Bootstrap initializes logging and the optional database, then assembles the app.
func Bootstrap(cfg *Config) (*App, error) {
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	a := New(cfg, infra.DB)
	a.infra = infra
	return a, nil
}

// New assembles the app. db may be nil, which disables the quote journal.
func New(cfg *Config, db *sqlx.DB) *App {
	fetcher := rates.NewFetcher(rates.Options{URL: cfg.Rates.URL, Timeout: cfg.Rates.Timeout()})

	var (
		machineOpts []conversation.Option
		botOpts     []bot.Option
	)
	if db != nil {
		j := journal.New(db)
		machineOpts = append(machineOpts, conversation.WithJournal(j))
		botOpts = append(botOpts, bot.WithQuoteCounter(j))
	}
	machine := conversation.New(state.NewMemoryStore[conversation.Session](), fetcher, machineOpts...)

	logger.Info(logger.Background(), logger.CompApp, "app.assembled",
		slog.String("status", "ok"),
		slog.String("url", cfg.Rates.URL),
		slog.Bool("journal", db != nil),
	)
	return &App{cfg: cfg, bot: bot.New(machine, botOpts...)}
}

// TelegramRunOptions builds the registry, middleware chain and routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.bot.Register(reg)

	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: reg,
		DispatcherOptions: tgsender.Options{
			Workers:    4,
			MaxRetries: 2,
		},
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, coretelegram.ChainOptions{
			RateLimitBypass: a.bot.InFlow,
		}),
		Routes: router.Routes(reg, router.CommandOptions{
			AdminID:       a.cfg.Telegram.AdminID,
			OnAdminReject: a.bot.HandleText,
		}),
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.bot.SetDispatcher(rt.Dispatcher)
			return nil
		},
	}, nil
}

// Close releases infrastructure.
func (a *App) Close() error {
	return a.infra.Close()
}
