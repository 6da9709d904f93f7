// Package bot adapts the conversation machine to Telegram updates.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
	tg "github.com/m3rciful/cnybot/core/telegram"
	tghelpers "github.com/m3rciful/cnybot/core/telegram/helpers"
	"github.com/m3rciful/cnybot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/cnybot/core/telegram/sender"
	"github.com/m3rciful/cnybot/internal/conversation"
)

// QuoteCounter reports how many quotes were journaled.
type QuoteCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Bot routes updates into the machine and renders its replies.
type Bot struct {
	machine    *conversation.Machine
	quotes     QuoteCounter
	dispatcher atomic.Pointer[tgsender.Dispatcher]
}

// Option customises a Bot.
type Option func(*Bot)

// WithQuoteCounter adds journal totals to /stats.
func WithQuoteCounter(qc QuoteCounter) Option {
	return func(b *Bot) { b.quotes = qc }
}

// New creates a Bot around m.
func New(m *conversation.Machine, opts ...Option) *Bot {
	b := &Bot{machine: m}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetDispatcher exposes sender counters to /stats.
func (b *Bot) SetDispatcher(d *tgsender.Dispatcher) {
	b.dispatcher.Store(d)
}

// Register adds the bot commands and the text handler to reg.
func (b *Bot) Register(reg *tg.Registry) {
	reg.RegisterCommand(conversation.CmdStart, tg.Command{Handler: b.HandleStart, Description: "Новый расчет"})
	reg.RegisterCommand(conversation.CmdCancel, tg.Command{Handler: b.HandleCancel, Description: "Отменить расчет"})
	reg.RegisterCommand("/stats", tg.Command{Handler: b.HandleStats, AdminOnly: true})
	reg.SetTextHandler(b.HandleText)
}

// HandleStart begins a new calculation.
func (b *Bot) HandleStart(c tele.Context) error {
	ctx, userID, ok := identify(c)
	if !ok {
		return nil
	}
	return send(c, b.machine.Start(ctx, userID))
}

// HandleCancel ends the current calculation.
func (b *Bot) HandleCancel(c tele.Context) error {
	ctx, userID, ok := identify(c)
	if !ok {
		return nil
	}
	return send(c, b.machine.Cancel(ctx, userID))
}

// HandleText feeds free text (including unknown commands) to the machine.
func (b *Bot) HandleText(c tele.Context) error {
	ctx, userID, ok := identify(c)
	if !ok {
		return nil
	}
	return send(c, b.machine.HandleText(ctx, userID, c.Text()))
}

// HandleStats reports runtime counters to the admin.
func (b *Bot) HandleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st := b.machine.Stats()

	var sb strings.Builder
	sb.WriteString("📈 Статистика\n")
	fmt.Fprintf(&sb, "Активные расчеты: %d\n", st.ActiveSessions)
	fmt.Fprintf(&sb, "Расчетов с запуска: %d\n", st.Quotes)
	fmt.Fprintf(&sb, "Резервный курс: %d\n", st.FallbackRates)
	fmt.Fprintf(&sb, "Ошибок диалога: %d\n", st.Failures)
	if d := b.dispatcher.Load(); d != nil {
		fmt.Fprintf(&sb, "Отправлено сообщений: %d\n", d.Sent())
		fmt.Fprintf(&sb, "Ошибок отправки: %d\n", d.ErrorCount())
	}
	if b.quotes != nil {
		if n, err := b.quotes.Count(ctx); err != nil {
			logger.Warn(ctx, logger.CompJournal, "journal.count",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			fmt.Fprintf(&sb, "Расчетов в журнале: %d\n", n)
		}
	}
	return tghelpers.SendText(c, strings.TrimRight(sb.String(), "\n"), nil)
}

// InFlow reports whether the sender has an active calculation. Such updates are
// always answered, so the rate limiter lets them through.
func (b *Bot) InFlow(c tele.Context) bool {
	u := c.Sender()
	return u != nil && b.machine.InProgress(u.ID)
}

func identify(c tele.Context) (context.Context, int64, bool) {
	u := c.Sender()
	if u == nil {
		return nil, 0, false
	}
	return tghelpers.BuildContext(c), u.ID, true
}

// Markup converts a conversation keyboard into a reply markup. Nil stays nil.
func Markup(kb *conversation.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	return keyboard.ReplyButtons(keyboard.Options{OneTime: kb.OneTime}, kb.Rows...)
}

func send(c tele.Context, r conversation.Reply) error {
	if r.Markdown {
		return tghelpers.SendMD(c, r.Text, Markup(r.Keyboard))
	}
	return tghelpers.SendText(c, r.Text, Markup(r.Keyboard))
}
