package middleware

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	coremetrics "github.com/m3rciful/cnybot/core/metrics"
)

// UpdateKind classifies an update: command, text, callback, inline_query or other.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Message != nil && strings.HasPrefix(upd.Message.Text, "/"):
		return "command"
	case upd.Message != nil && upd.Message.Text != "":
		return "text"
	case upd.Callback != nil:
		return "callback"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// countingContext counts delivered messages by whether they carried a keyboard.
type countingContext struct{ tele.Context }

func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		label := "false"
		if hasKeyboard(opts) {
			label = "true"
		}
		coremetrics.MessagesSent.WithLabelValues(label).Inc()
	}
	return err
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Metrics counts the update by kind and wraps the context so deliveries are counted.
func Metrics(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		coremetrics.Updates.WithLabelValues(UpdateKind(c)).Inc()
		return next(countingContext{Context: c})
	}
}
