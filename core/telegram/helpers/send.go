package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
	"github.com/m3rciful/cnybot/core/telegram/sender"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d. With nil, sends are synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

func send(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	_, _, chatID := IDs(c)
	err := d.Enqueue(sender.Job{Ctx: ctx, ChatID: chatID, Action: action, Run: run})
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// Context keys holding the per-update send counters.
const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// noteSend records a reply at call time, before the dispatcher delivers it.
func noteSend(c tele.Context, withKeyboard bool) {
	n, _ := c.Get(keyMessages).(int)
	c.Set(keyMessages, n+1)
	if withKeyboard {
		c.Set(keyKeyboard, true)
	}
}

// Counters reports how many replies the current update produced and whether any
// carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return n, kb
}

// SendText sends plain text with an optional reply markup.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	noteSend(c, markup != nil)
	opts := &tele.SendOptions{ReplyMarkup: markup}
	return send(c, "send.text", func() error {
		return c.Send(text, opts)
	})
}

// SendMD sends text with legacy Markdown parse mode.
func SendMD(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	noteSend(c, markup != nil)
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup}
	return send(c, "send.md", func() error {
		return c.Send(text, opts)
	})
}
