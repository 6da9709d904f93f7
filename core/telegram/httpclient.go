package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/cnybot/core/logger"
	"github.com/m3rciful/cnybot/core/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	tlsTimeout       = 5 * time.Second
	idleConnTimeout  = 30 * time.Second
	keepAlive        = 30 * time.Second
	clientTimeout    = 70 * time.Second
	retryAttempts    = 3
	retryBackoffUnit = time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. Transient transport
// failures are retried with linear backoff. The client timeout leaves room for the
// long-poll window.
func BuildHTTPClient() *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   clientTimeout,
		Transport: &retryTransport{base: base, retries: retryAttempts, backoff: retryBackoffUnit},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && netutil.ShouldRetry(err); attempt++ {
		// a consumed body cannot be replayed
		if req.Body != nil && req.GetBody == nil {
			break
		}
		delay := t.backoff * time.Duration(attempt)
		logger.TWire.Debug("api retry",
			slog.String("event", "tg.api.retry"),
			slog.Int("attempt", attempt),
			slog.String("error_kind", netutil.Kind(err)),
			slog.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		next := req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			next.Body = body
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}
