// Package httpclient provides an outbound HTTP client guarded by a circuit
// breaker, used for calls to the external identity provider. The breaker is
// an http.RoundTripper so it composes with transports layered on top of it
// (e.g. an OAuth2 token source).
package httpclient

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects requests outright.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig holds circuit breaker tuning for one downstream host.
type BreakerConfig struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// MaxRequests is the number of probe requests allowed in the half-open
	// state. 0 means 1.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once this share of requests fail.
	FailureRatio float64

	// MinRequests is the minimum sample size before the ratio is evaluated.
	MinRequests uint32

	// RequestTimeout bounds each individual request.
	RequestTimeout time.Duration
}

// DefaultBreakerConfig returns sensible defaults for a downstream breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:           name,
		MaxRequests:    1,
		Interval:       60 * time.Second,
		Timeout:        30 * time.Second,
		FailureRatio:   0.5,
		MinRequests:    5,
		RequestTimeout: 10 * time.Second,
	}
}

var circuitBreakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(circuitBreakerState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerTransport is an http.RoundTripper that routes requests through a
// circuit breaker. Network errors and 5xx responses count as failures; 4xx
// responses pass through untouched since they indicate a caller problem, not
// downstream degradation.
type BreakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerTransport wraps base (or http.DefaultTransport if nil) with a
// circuit breaker.
func NewBreakerTransport(cfg BreakerConfig, base http.RoundTripper, logger *slog.Logger) *BreakerTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			circuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	circuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerTransport{
		base:    base,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *BreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		// Treat 5xx responses as failures for the circuit breaker.
		if resp.StatusCode >= 500 {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
			if readErr != nil {
				body = []byte{}
			}
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
		}
		return resp, nil
	})
}

// State returns the current breaker state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}

// New returns an *http.Client whose transport is guarded by a circuit
// breaker and whose requests are bounded by cfg.RequestTimeout.
func New(cfg BreakerConfig, logger *slog.Logger) *http.Client {
	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: NewBreakerTransport(cfg, nil, logger),
	}
}
