package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
	tg "github.com/m3rciful/cnybot/core/telegram"
	"github.com/m3rciful/cnybot/core/telegram/middleware"
)

// CommandOptions configures admin gating.
type CommandOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command.
func CommandRoutes(reg *tg.Registry, opts CommandOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	names := reg.Names()
	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		cmd, _ := reg.Lookup(name)
		h := summarize(handlerName(name), cmd.Handler)
		if cmd.AdminOnly {
			h = middleware.AdminOnly(opts.AdminID, opts.OnAdminReject)(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "routes"),
		slog.Int("commands", len(routes)),
	)
	return routes
}
