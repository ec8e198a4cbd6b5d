// Package pacing enforces a minimum spacing between outbound upstream calls.
// The gate is process-wide and deliberately conservative: it throttles the
// aggregate outbound rate regardless of which resource is being fetched,
// trading some latency for guaranteed compliance with upstream rate limits.
package pacing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for gate activity.
var (
	pacingWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexus_pacing_waits_total",
		Help: "Total number of dispatches delayed by the pacing gate",
	})

	pacingWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nexus_pacing_wait_seconds",
		Help:    "Time spent waiting on the pacing gate",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
)

// DefaultInterval is the minimum spacing between any two outbound dispatches.
const DefaultInterval = 25 * time.Millisecond

// Gate serializes dispatch slots. Each Acquire reserves the next slot at
// least interval after the previously reserved one, so the gap between any
// two consecutive dispatches is >= interval at any caller concurrency.
type Gate struct {
	mu           sync.Mutex
	interval     time.Duration
	lastDispatch time.Time
	logger       zerolog.Logger
}

// NewGate creates a gate with the given minimum dispatch interval.
// A non-positive interval falls back to DefaultInterval.
func NewGate(interval time.Duration, logger zerolog.Logger) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Gate{
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the configured minimum spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Acquire blocks until at least the configured interval has elapsed since
// the last recorded dispatch, records a new dispatch time, and returns.
// The slot is reserved before waiting, so a cancelled waiter burns its slot
// rather than letting a later caller dispatch early.
func (g *Gate) Acquire(ctx context.Context) error {
	now := time.Now()

	g.mu.Lock()
	target := g.lastDispatch.Add(g.interval)
	if target.Before(now) {
		target = now
	}
	g.lastDispatch = target
	g.mu.Unlock()

	wait := time.Until(target)
	if wait <= 0 {
		return nil
	}

	pacingWaitsTotal.Inc()
	pacingWaitSeconds.Observe(wait.Seconds())

	g.logger.Debug().
		Dur("wait", wait).
		Msg("Pacing gate delaying dispatch")

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
