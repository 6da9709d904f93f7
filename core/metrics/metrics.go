// Package metrics exposes Prometheus collectors for the transport layer and serves
// the default registry over HTTP.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreconfig "github.com/m3rciful/cnybot/core/config"
	"github.com/m3rciful/cnybot/core/logger"
)

const namespace = "tg"

var (
	// Updates counts incoming updates by kind (command, text, other).
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Telegram updates received by kind.",
	}, []string{"kind"})

	// HandlerDuration observes handler latency by handler name and status.
	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Telegram update handling latency.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"handler", "status"})

	// MessagesSent counts outbound messages by whether they carried a keyboard.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Messages sent by handlers.",
	}, []string{"keyboard"})

	// RateLimited counts updates dropped by the per-user rate limit.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limit.",
	})

	// SenderFailures counts outbound calls that failed after retries.
	SenderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sender_failures_total",
		Help:      "Outbound Telegram calls that failed after retries.",
	})
)

// Handler returns the HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes metrics on cfg.Listen until ctx is done. An empty listen address disables it.
func Serve(ctx context.Context, cfg coreconfig.MetricsConfig) error {
	if cfg.Listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info(ctx, logger.CompMetrics, "metrics.listen",
		slog.String("status", "ok"),
		slog.String("listen", cfg.Listen),
		slog.String("path", cfg.Path),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics: shutdown: %w", err)
	}
	return nil
}
