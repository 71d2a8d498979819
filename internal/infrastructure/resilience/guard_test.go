package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func retryAll(error) Verdict { return Verdict{Retry: true, Trip: true} }

func TestGuardRetriesUntilSuccess(t *testing.T) {
	g := New(fastConfig(), nil)

	calls := 0
	err := g.Run(context.Background(), "op", retryAll, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestGuardStopsOnNonRetryable(t *testing.T) {
	g := New(fastConfig(), nil)

	calls := 0
	err := g.Run(context.Background(), "op", func(error) Verdict { return Verdict{} }, func(context.Context) error {
		calls++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("Run() error = nil, want the call error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGuardExhaustsAttempts(t *testing.T) {
	g := New(fastConfig(), nil)

	calls := 0
	err := g.Run(context.Background(), "op", retryAll, func(context.Context) error {
		calls++
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("Run() error = nil, want the last error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestGuardOpensBreaker(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenFor = time.Minute
	g := New(cfg, nil)

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 2; i++ {
		if err := g.Run(context.Background(), "op", retryAll, fail); err == nil {
			t.Fatal("Run() error = nil, want failure")
		}
	}

	err := g.Run(context.Background(), "op", retryAll, fail)
	if !BreakerOpen(err) {
		t.Fatalf("error = %v, want open breaker", err)
	}
}

func TestGuardBreakerIgnoresUnrecordedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerMinRequests = 2
	g := New(cfg, nil)

	// Trip=false failures must never open the breaker.
	noTrip := func(error) Verdict { return Verdict{} }
	fail := func(context.Context) error { return errors.New("client mistake") }
	for i := 0; i < 10; i++ {
		if err := g.Run(context.Background(), "op", noTrip, fail); BreakerOpen(err) {
			t.Fatalf("breaker opened on unrecorded failures at call %d", i)
		}
	}
}

func TestGuardHonorsContextCancellation(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second
	g := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, "op", retryAll, func(context.Context) error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run() error = nil, want error after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1; backoff wait must respect cancellation", calls)
	}
}

func TestGuardSeparateBreakersPerOperation(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerMinRequests = 1
	cfg.BreakerFailureRatio = 0.1
	cfg.BreakerOpenFor = time.Minute
	g := New(cfg, nil)

	fail := func(context.Context) error { return errors.New("down") }
	_ = g.Run(context.Background(), "first", retryAll, fail)
	if err := g.Run(context.Background(), "first", retryAll, fail); !BreakerOpen(err) {
		t.Fatalf("first operation breaker should be open, got %v", err)
	}

	ok := func(context.Context) error { return nil }
	if err := g.Run(context.Background(), "second", retryAll, ok); err != nil {
		t.Fatalf("second operation must have its own breaker, got %v", err)
	}
}
