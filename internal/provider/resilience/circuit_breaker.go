// Package resilience provides HTTP clients for upstream providers with a
// circuit breaker, bounded retries and health reporting for the ops status
// endpoint.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Bounds on how long a fallback breaker stays open.
const (
	minFallbackOpen = 30 * time.Second
	maxFallbackOpen = 5 * time.Minute
)

// CircuitBreakerConfig describes when a provider's breaker trips and how long
// it stays open.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero keeps them
	// until the state changes.
	Interval time.Duration

	// OpenFor is how long the breaker rejects calls before letting a trial request through.
	OpenFor time.Duration

	// ConsecutiveFailures trips the breaker after this many failures in a
	// row. Zero disables the rule.
	ConsecutiveFailures uint32

	// MinRequests and FailureRatio trip the breaker once at least MinRequests
	// calls were made and the failure share reaches FailureRatio. A zero
	// MinRequests disables the rule.
	MinRequests  uint32
	FailureRatio float64

	// OnStateChange, when set, is told about every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultCircuitBreakerConfig trips on a 50% failure rate over at least five
// calls and stays open for a minute.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		OpenFor:      time.Minute,
		MinRequests:  5,
		FailureRatio: 0.5,
	}
}

// FallbackCircuitBreakerConfig is the policy for providers whose callers
// substitute a default value on failure, such as weather lookups. Each
// failed call costs a prediction up to fetchTimeout of latency, so the
// breaker trips after three consecutive failures and stays open for ten
// fetch timeouts, clamped to [30s, 5m]. Counts reset every minute so sparse
// failures never accumulate into a trip.
func FallbackCircuitBreakerConfig(name string, fetchTimeout time.Duration) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.Interval = time.Minute
	cfg.ConsecutiveFailures = 3
	cfg.OpenFor = clampDuration(10*fetchTimeout, minFallbackOpen, maxFallbackOpen)
	return cfg
}

// ReadyToTrip reports whether counts should open the breaker.
func (c CircuitBreakerConfig) ReadyToTrip(counts gobreaker.Counts) bool {
	if c.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= c.ConsecutiveFailures {
		return true
	}
	if c.MinRequests == 0 || counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

// NewCircuitBreaker builds a gobreaker breaker from cfg.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.OpenFor,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
	})
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	switch {
	case d < lo:
		return lo
	case d > hi:
		return hi
	default:
		return d
	}
}
