package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/cnybot/core/telegram"
)

// TextRoute sends all non-command text to the registry's text handler. Unknown
// slash commands arrive here too.
func TextRoute(reg *tg.Registry) tg.Route {
	h := func(c tele.Context) error {
		if reg == nil || reg.TextHandler() == nil {
			return nil
		}
		return reg.TextHandler()(c)
	}
	return tg.Route{Endpoint: tele.OnText, Handler: summarize("text", h)}
}

// Routes combines command routes and the text route.
func Routes(reg *tg.Registry, opts CommandOptions) []tg.Route {
	return append(CommandRoutes(reg, opts), TextRoute(reg))
}
