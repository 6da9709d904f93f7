package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
	coremetrics "github.com/m3rciful/cnybot/core/metrics"
	tghelpers "github.com/m3rciful/cnybot/core/telegram/helpers"
)

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that bypass the limit.
	Exclude map[string]struct{}
	// Bypass, when set, exempts updates it returns true for.
	Bypass    func(tele.Context) bool
	OnLimited tele.HandlerFunc
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// RateLimit drops updates that arrive from the same user within opts.Interval.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			u := c.Sender()
			if u == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c)]; skip {
				return next(c)
			}
			if opts.Bypass != nil && opts.Bypass(c) {
				return next(c)
			}

			t := now()
			mu.Lock()
			last, seen := lastSeen[u.ID]
			limited := seen && t.Sub(last) < opts.Interval
			if !limited {
				lastSeen[u.ID] = t
			}
			for id, ts := range lastSeen {
				if t.Sub(ts) > time.Minute {
					delete(lastSeen, id)
				}
			}
			mu.Unlock()

			if !limited {
				return next(c)
			}
			coremetrics.RateLimited.Inc()
			logger.Warn(tghelpers.BuildContext(c), logger.CompTelegram, "tg.rate_limit",
				slog.String("status", "skip"),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
