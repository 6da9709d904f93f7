// Package rates resolves the CNY→RUB exchange rate from the Central Bank of Russia
// daily JSON feed, falling back to a fixed rate when the feed is unavailable.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/m3rciful/cnybot/core/logger"
	"github.com/m3rciful/cnybot/internal/metrics"
)

const (
	// DefaultURL is the CBR daily rates endpoint.
	DefaultURL = "https://www.cbr-xml-daily.ru/daily_json.js"
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 5 * time.Second
	// FallbackRate is used whenever the live rate cannot be obtained.
	FallbackRate = 12.5

	currency = "CNY"

	// SourceCBR marks a rate that came from the live feed.
	SourceCBR = "cbr"
	// SourceFallback marks the fixed fallback rate.
	SourceFallback = "fallback"

	maxBodyBytes = 1 << 20
)

var (
	errCurrencyMissing = errors.New("rates: currency missing from feed")
	errBadNumbers      = errors.New("rates: non-positive value or nominal")
)

// Rate is a resolved conversion factor and where it came from.
type Rate struct {
	Value  float64
	Source string
}

// Options configure a Fetcher. Zero values select the defaults.
type Options struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// Fetcher performs one request per Fetch call; it never retries.
type Fetcher struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewFetcher builds a Fetcher from opts.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		url:     opts.URL,
		timeout: opts.Timeout,
		client:  opts.Client,
	}
	if f.url == "" {
		f.url = DefaultURL
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f
}

type valute struct {
	Value   *float64 `json:"Value"`
	Nominal *float64 `json:"Nominal"`
}

type dailyPayload struct {
	Valute map[string]valute `json:"Valute"`
}

// Fetch returns the current CNY rate rounded to two decimals, or FallbackRate on any failure.
func (f *Fetcher) Fetch(ctx context.Context) Rate {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	v, err := f.fetch(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompRates, "rates.fetch",
			slog.String("status", "fallback"),
			slog.String("url", f.url),
			slog.Float64("rate", FallbackRate),
			slog.String("rate_source", SourceFallback),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		metrics.RateFetches.WithLabelValues(SourceFallback).Inc()
		return Rate{Value: FallbackRate, Source: SourceFallback}
	}

	logger.Debug(ctx, logger.CompRates, "rates.fetch",
		slog.String("status", "ok"),
		slog.Float64("rate", v),
		slog.String("rate_source", SourceCBR),
		slog.Duration("duration", logger.Took(start)),
	)
	metrics.RateFetches.WithLabelValues(SourceCBR).Inc()
	return Rate{Value: v, Source: SourceCBR}
}

func (f *Fetcher) fetch(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return 0, fmt.Errorf("get rates: unexpected status %s", resp.Status)
	}

	var payload dailyPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode rates: %w", err)
	}
	return extractRate(payload)
}

func extractRate(p dailyPayload) (float64, error) {
	entry, ok := p.Valute[currency]
	if !ok || entry.Value == nil || entry.Nominal == nil {
		return 0, errCurrencyMissing
	}
	value, nominal := *entry.Value, *entry.Nominal
	if !(value > 0) || !(nominal > 0) || math.IsInf(value, 0) || math.IsInf(nominal, 0) {
		return 0, errBadNumbers
	}
	rate := round2(value / nominal)
	if rate <= 0 {
		return 0, errBadNumbers
	}
	return rate, nil
}

// round2 rounds to two decimals from the exact binary value, ties to even, so
// 0.125 becomes 0.12 and 0.375 becomes 0.38.
func round2(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	return r
}
