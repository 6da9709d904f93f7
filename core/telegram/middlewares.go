package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/cnybot/core/config"
	"github.com/m3rciful/cnybot/core/telegram/middleware"
)

// ChainOptions are the application hooks for DefaultMiddlewares.
type ChainOptions struct {
	// OnLimited answers a rate-limited update; nil drops it.
	OnLimited tele.HandlerFunc
	// RateLimitBypass exempts updates from the rate limit, e.g. replies inside
	// an active conversation.
	RateLimitBypass func(tele.Context) bool
}

// DefaultMiddlewares builds the global chain: recover, per-user serialization,
// optional rate limit, logging and metrics.
func DefaultMiddlewares(cfg *coreconfig.Config, opts ChainOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.Recover},
		{Name: "per_user", Use: middleware.PerUser()},
		{Name: "logger", Use: middleware.Logger},
	}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimit(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   exclude,
				Bypass:    opts.RateLimitBypass,
				OnLimited: opts.OnLimited,
			}),
		})
	}

	return append(mws, Middleware{Name: "metrics", Use: middleware.Metrics})
}
