// Package sender delivers outbound Bot API calls off the update goroutine.
// Jobs for the same chat run on the same worker, so replies keep their order.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
	coremetrics "github.com/m3rciful/cnybot/core/metrics"
	"github.com/m3rciful/cnybot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the chat's shard is saturated.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the dispatcher. Zero values get defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

// Job is a single outbound call.
type Job struct {
	Ctx    context.Context
	ChatID int64
	Action string
	Run    func() error
}

// Dispatcher executes jobs asynchronously with retries on transient failures.
type Dispatcher struct {
	opts   Options
	shards []chan Job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	sent   atomic.Uint64
	errs   atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, shards: make([]chan Job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan Job, opts.QueueSize)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules j on the shard owning j.ChatID. Run must be safe to repeat.
func (d *Dispatcher) Enqueue(j Job) error {
	if j.Run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shards[d.shardFor(j.ChatID)] <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(chatID int64) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(len(d.shards)))
}

// Sent returns the number of jobs that completed.
func (d *Dispatcher) Sent() uint64 { return d.sent.Load() }

// ErrorCount returns the number of jobs that failed after retries.
func (d *Dispatcher) ErrorCount() uint64 { return d.errs.Load() }

// Close stops accepting jobs and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan Job) {
	defer d.wg.Done()
	for j := range jobs {
		d.run(j)
	}
}

func (d *Dispatcher) run(j Job) {
	ctx := j.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	deadline, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.Run(); err == nil {
			d.sent.Add(1)
			attrs := []slog.Attr{slog.String("status", "ok"), slog.String("action", j.Action)}
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempt", attempt))
			}
			attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))
			logger.Debug(ctx, logger.CompSender, "send.success", attrs...)
			return
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		timer := time.NewTimer(d.opts.RetryBackoff * time.Duration(attempt))
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			attempt = attempts
		case <-timer.C:
		}
	}

	d.errs.Add(1)
	coremetrics.SenderFailures.Inc()
	logger.Error(ctx, logger.CompSender, "send.fail",
		slog.String("status", "fail"),
		slog.String("action", j.Action),
		slog.String("err", redact(err)),
		slog.String("error_kind", netutil.Kind(err)),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// redact strips bot tokens that net/http embeds in URL errors.
func redact(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Description
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
