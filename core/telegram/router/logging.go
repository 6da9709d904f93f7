// Package router turns the registry into telebot routes wrapped with handler
// summaries and latency metrics.
package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
	coremetrics "github.com/m3rciful/cnybot/core/metrics"
	tghelpers "github.com/m3rciful/cnybot/core/telegram/helpers"
)

// summarize runs h and logs one handler.handled line with status, message count and duration.
func summarize(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := tghelpers.WithHandler(c, name)
		err := h(c)

		status := "ok"
		if err != nil {
			status = "fail"
		}
		took := time.Since(start)
		coremetrics.HandlerDuration.WithLabelValues(name, status).Observe(took.Seconds())

		msgs, kb := tghelpers.Counters(c)
		attrs := []slog.Attr{
			slog.String("status", status),
			slog.String("handler", name),
			slog.Int("messages", msgs),
			slog.Bool("kb", kb),
			slog.Duration("duration", logger.RoundMS(took)),
		}
		if err != nil {
			attrs = append(attrs,
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				slog.String("err_code", errorCode(err)),
			)
		}
		logger.Info(ctx, logger.CompTelegram, "handler.handled", attrs...)
		return err
	}
}

func handlerName(endpoint string) string {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(endpoint), "/"))
	if name == "" {
		return "unknown"
	}
	return "cmd." + name
}

func errorCode(err error) string {
	var apiErr *tele.Error
	switch {
	case errors.Is(err, tele.ErrBlockedByUser):
		return "BLOCKED"
	case errors.As(err, &apiErr):
		return "TG_API"
	}
	return "INTERNAL"
}
