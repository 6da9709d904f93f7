// Package conversation implements the two-step price dialog: the user enters a CNY
// price, picks a box tier and receives the RUB total.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/cnybot/core/logger"
	"github.com/m3rciful/cnybot/core/telegram/state"
	"github.com/m3rciful/cnybot/internal/metrics"
	"github.com/m3rciful/cnybot/internal/quote"
	"github.com/m3rciful/cnybot/internal/rates"
)

// Conversation states. Idle means no session exists.
const (
	StateIdle          = state.StateIdle
	StateAwaitingPrice = state.State("awaiting_price")
	StateAwaitingBox   = state.State("awaiting_box")
)

// Session is the per-user record of an in-progress calculation.
// Price and Rate are set together once the price step succeeds.
type Session struct {
	State      state.State
	Price      float64
	Rate       float64
	RateSource string
}

// RateSource resolves the exchange rate. Implementations must not fail.
type RateSource interface {
	Fetch(ctx context.Context) rates.Rate
}

// Journal records completed quotes.
type Journal interface {
	Record(ctx context.Context, userID int64, q quote.Quote, rateSource string) error
}

// Stats is a snapshot of machine counters.
type Stats struct {
	ActiveSessions int
	Quotes         uint64
	FallbackRates  uint64
	Failures       uint64
}

var errUnknownState = errors.New("conversation: unknown state")

// Machine drives conversations for all users. Messages from a single user must be
// delivered sequentially; different users may be served concurrently.
type Machine struct {
	store   state.Store[Session]
	rates   RateSource
	journal Journal

	quotes    atomic.Uint64
	fallbacks atomic.Uint64
	failures  atomic.Uint64
}

// Option customises a Machine.
type Option func(*Machine)

// WithJournal records every completed quote in j.
func WithJournal(j Journal) Option {
	return func(m *Machine) { m.journal = j }
}

// New creates a Machine backed by store and rs.
func New(store state.Store[Session], rs RateSource, opts ...Option) *Machine {
	m := &Machine{store: store, rates: rs}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the user's current state.
func (m *Machine) State(userID int64) state.State {
	if s, ok := m.store.Get(userID); ok {
		return s.State
	}
	return StateIdle
}

// InProgress reports whether the user has an active conversation.
func (m *Machine) InProgress(userID int64) bool {
	return m.State(userID) != StateIdle
}

// Stats returns current counters.
func (m *Machine) Stats() Stats {
	return Stats{
		ActiveSessions: m.store.Len(),
		Quotes:         m.quotes.Load(),
		FallbackRates:  m.fallbacks.Load(),
		Failures:       m.failures.Load(),
	}
}

// Start discards any previous session and asks for a price. Valid from every state.
func (m *Machine) Start(ctx context.Context, userID int64) Reply {
	return m.step(ctx, userID, "start", func(Session, bool) (Reply, error) {
		m.put(userID, Session{State: StateAwaitingPrice})
		return Reply{Text: msgAskPrice, Keyboard: cancelKeyboard()}, nil
	})
}

// Cancel ends the conversation. While idle it answers the same way.
func (m *Machine) Cancel(ctx context.Context, userID int64) Reply {
	return m.step(ctx, userID, "cancel", func(Session, bool) (Reply, error) {
		return m.cancel(userID), nil
	})
}

// HandleText interprets free text according to the user's current state.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) Reply {
	return m.step(ctx, userID, "text", func(s Session, ok bool) (Reply, error) {
		text = strings.TrimSpace(text)
		if !ok {
			return Reply{Text: msgIdleHint, Keyboard: startKeyboard()}, nil
		}
		if text == CmdCancel {
			return m.cancel(userID), nil
		}
		switch s.State {
		case StateAwaitingPrice:
			return m.handlePrice(ctx, userID, text)
		case StateAwaitingBox:
			return m.handleBox(ctx, userID, s, text)
		default:
			return Reply{}, fmt.Errorf("%w: %q", errUnknownState, s.State)
		}
	})
}

func (m *Machine) handlePrice(ctx context.Context, userID int64, text string) (Reply, error) {
	price, err := quote.ParsePrice(text)
	if err != nil {
		m.transition(ctx, StateAwaitingPrice, StateAwaitingPrice, "rejected",
			slog.String("payload", logger.SanitizeLimit(text, 64)))
		return Reply{Text: msgInvalidPrice}, nil
	}

	rate := m.rates.Fetch(ctx)
	if rate.Source == rates.SourceFallback {
		m.fallbacks.Add(1)
	}
	m.put(userID, Session{
		State:      StateAwaitingBox,
		Price:      price,
		Rate:       rate.Value,
		RateSource: rate.Source,
	})
	m.transition(ctx, StateAwaitingPrice, StateAwaitingBox, "ok",
		slog.Float64("price_cny", price),
		slog.Float64("rate", rate.Value),
		slog.String("rate_source", rate.Source),
	)
	return Reply{
		Text:     fmt.Sprintf(msgChooseBox, quote.FormatNumber(rate.Value)),
		Keyboard: boxKeyboard(),
	}, nil
}

func (m *Machine) handleBox(ctx context.Context, userID int64, s Session, text string) (Reply, error) {
	box, ok := quote.LookupBox(text)
	if !ok {
		m.transition(ctx, StateAwaitingBox, StateAwaitingBox, "rejected",
			slog.String("payload", logger.SanitizeLimit(text, 64)))
		return Reply{Text: msgUnknownBox, Keyboard: boxKeyboard()}, nil
	}
	if !(s.Price > 0) || !(s.Rate > 0) {
		return Reply{}, fmt.Errorf("conversation: box selected without price or rate (price=%v rate=%v)", s.Price, s.Rate)
	}

	q := quote.Compute(s.Price, s.Rate, box)
	m.drop(userID)
	m.quotes.Add(1)
	metrics.Quotes.WithLabelValues(box.Code).Inc()
	m.transition(ctx, StateAwaitingBox, StateIdle, "ok",
		slog.Float64("price_cny", q.PriceCNY),
		slog.Float64("rate", q.Rate),
		slog.String("box", box.Code),
		slog.Int("delivery_rub", box.Delivery),
		slog.Int64("total_rub", int64(q.Total)),
	)

	if m.journal != nil {
		if err := m.journal.Record(ctx, userID, q, s.RateSource); err != nil {
			logger.Error(ctx, logger.CompJournal, "journal.record",
				slog.String("status", "fail"),
				slog.String("box", box.Code),
				slog.String("err", err.Error()),
			)
		}
	}

	return Reply{Text: renderQuote(q), Markdown: true, Keyboard: startKeyboard()}, nil
}

func (m *Machine) cancel(userID int64) Reply {
	m.drop(userID)
	return Reply{Text: msgCancelled, Keyboard: startKeyboard()}
}

// step is the error boundary around every transition: an error or panic inside fn
// discards the session and yields the generic failure reply.
func (m *Machine) step(ctx context.Context, userID int64, name string, fn func(Session, bool) (Reply, error)) (reply Reply) {
	if ctx == nil {
		ctx = context.Background()
	}
	current, ok := m.store.Get(userID)
	from := StateIdle
	if ok {
		from = current.State
	}

	fail := func(err error, attrs ...slog.Attr) {
		m.failures.Add(1)
		m.drop(userID)
		metrics.Transitions.WithLabelValues(string(from), "fail").Inc()
		attrs = append([]slog.Attr{
			slog.String("status", "fail"),
			slog.String("state", string(from)),
			slog.String("cause", name),
			slog.String("err", err.Error()),
		}, attrs...)
		logger.Error(ctx, logger.CompConversation, "conversation.failed", attrs...)
		reply = Reply{Text: msgFailure, Keyboard: startKeyboard()}
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	reply, err := fn(current, ok)
	if err != nil {
		fail(err)
	}
	return reply
}

func (m *Machine) transition(ctx context.Context, from, to state.State, outcome string, attrs ...slog.Attr) {
	metrics.Transitions.WithLabelValues(string(from), outcome).Inc()
	attrs = append([]slog.Attr{
		slog.String("status", "ok"),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
		slog.String("outcome", outcome),
	}, attrs...)
	logger.Debug(ctx, logger.CompConversation, "conversation.step", attrs...)
}

func (m *Machine) put(userID int64, s Session) {
	m.store.Put(userID, s)
	metrics.ActiveSessions.Set(float64(m.store.Len()))
}

func (m *Machine) drop(userID int64) {
	m.store.Delete(userID)
	metrics.ActiveSessions.Set(float64(m.store.Len()))
}
