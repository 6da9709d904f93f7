// Package metrics declares the bot's Prometheus collectors. They register with the
// default registry, which core/metrics exposes over HTTP alongside the transport
// collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cnybot"

var (
	// RateFetches counts rate resolutions by source (cbr or fallback).
	RateFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_fetches_total",
		Help:      "Exchange rate resolutions by source.",
	}, []string{"source"})

	// Quotes counts completed quotes by box code.
	Quotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_total",
		Help:      "Completed quotes by box tier.",
	}, []string{"box"})

	// Transitions counts conversation outcomes per step.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversation_transitions_total",
		Help:      "Conversation steps by state and outcome.",
	}, []string{"state", "outcome"})

	// ActiveSessions tracks sessions currently held in the store.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Conversations in progress.",
	})

	JournalWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_writes_total",
		Help:      "Quote journal inserts by status.",
	}, []string{"status"})
)
