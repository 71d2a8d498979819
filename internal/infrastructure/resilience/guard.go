package resilience

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict tells the guard how to treat a failed attempt. Retry allows
// another attempt; Trip records the failure against the circuit breaker.
type Verdict struct {
	Retry bool
	Trip  bool
}

// Assess maps an error to a Verdict. Classifiers live next to the adapter
// that knows its transport.
type Assess func(err error) Verdict

// Config tunes retries and the per operation circuit breakers. The zero
// value enables the breaker with defaults.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	BreakerDisabled     bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
	BreakerProbeCalls   uint32
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 400 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.BackoffFactor < 1.0 {
		c.BackoffFactor = 2.0
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = 10
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = 0.5
	}
	if c.BreakerOpenFor <= 0 {
		c.BreakerOpenFor = 30 * time.Second
	}
	if c.BreakerProbeCalls == 0 {
		c.BreakerProbeCalls = 2
	}
	return c
}

// Guard wraps outbound calls with bounded retries and one circuit breaker
// per operation name.
type Guard struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func New(cfg Config, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Run executes fn under the operation's breaker, retrying attempts the
// assess function marks retryable. Context errors always end the call.
func (g *Guard) Run(ctx context.Context, operation string, assess Assess, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("resilience: nil operation callback")
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "unnamed"
	}
	if assess == nil {
		assess = func(error) Verdict { return Verdict{Trip: true} }
	}

	if g.cfg.BreakerDisabled {
		return g.attempt(ctx, operation, assess, fn)
	}

	breaker := g.breakerFor(operation, assess)
	_, err := breaker.Execute(func() (struct{}, error) {
		return struct{}{}, g.attempt(ctx, operation, assess, fn)
	})
	return err
}

func (g *Guard) attempt(ctx context.Context, operation string, assess Assess, fn func(context.Context) error) error {
	wait := g.cfg.InitialBackoff

	var lastErr error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if n >= g.cfg.MaxAttempts || !assess(lastErr).Retry {
			return lastErr
		}

		g.logger.Warn("retrying operation",
			"operation", operation,
			"attempt", n,
			"max_attempts", g.cfg.MaxAttempts,
			"wait_ms", wait.Milliseconds(),
			"error", lastErr,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}

		wait = time.Duration(float64(wait) * g.cfg.BackoffFactor)
		if wait > g.cfg.MaxBackoff {
			wait = g.cfg.MaxBackoff
		}
	}
}

func (g *Guard) breakerFor(operation string, assess Assess) *gobreaker.CircuitBreaker[struct{}] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if breaker, ok := g.breakers[operation]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        operation,
		MaxRequests: g.cfg.BreakerProbeCalls,
		Timeout:     g.cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < g.cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= g.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !assess(err).Trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit state changed",
				"operation", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	g.breakers[operation] = breaker
	return breaker
}

// BreakerOpen reports whether err came from an open or saturated breaker
// rather than the guarded call itself.
func BreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
