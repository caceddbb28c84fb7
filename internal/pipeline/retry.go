package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"go-sheet-pipeline/internal/model"
)

// ErrCircuitOpen is returned without calling the host while its breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// permanentError marks a failure that retrying cannot fix (a 404, a bad URL).
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Retry gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Retry runs op until it succeeds, fails permanently, the attempts run out or
// ctx ends. The last error is returned.
func Retry(ctx context.Context, p model.RetryPolicy, label string, op func(context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			if attempt > 1 {
				slog.Info("✅ retry succeeded", "op", label, "attempts", attempt)
			}
			return nil
		}
		if isPermanent(err) || attempt == p.MaxAttempts {
			break
		}
		delay := Backoff(p, attempt)
		slog.Warn("🔄 retrying", "op", label, "attempt", attempt, "max_attempts", p.MaxAttempts, "delay", delay, "error", err)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w (last error: %v)", label, ctx.Err(), err)
		case <-t.C:
		}
	}
	return err
}

// Backoff is the delay after the given failed attempt (1-based): the initial
// delay grown by the multiplier, capped at MaxDelay, with up to ±5% jitter.
func Backoff(p model.RetryPolicy, attempt int) time.Duration {
	mult := p.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter && delay > 0 {
		delay += time.Duration(float64(delay) * 0.1 * (rand.Float64() - 0.5))
	}
	return delay
}

// ---- Circuit breaker ----

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerHalfOpen:
		return "half-open"
	case BreakerOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Breaker fast-fails calls to a host after FailureThreshold consecutive
// failures. Permanent errors (4xx answers) count as the host being up. After ResetTimeout one trial call is let through; its outcome
// closes or reopens the breaker.
type Breaker struct {
	name     string
	policy   model.BreakerPolicy
	onChange func(name string, s BreakerState)

	mu       sync.Mutex
	state    BreakerState
	fails    int
	openedAt time.Time
	now      func() time.Time
}

func NewBreaker(name string, p model.BreakerPolicy, onChange func(string, BreakerState)) *Breaker {
	return &Breaker{name: name, policy: p, onChange: onChange, now: time.Now}
}

// Execute runs op unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if b.policy.FailureThreshold <= 0 {
		return op(ctx)
	}
	b.mu.Lock()
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.policy.ResetTimeout {
			b.mu.Unlock()
			return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
		}
		b.setState(BreakerHalfOpen)
	case BreakerHalfOpen:
		// one trial at a time
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if errors.Is(err, context.Canceled) {
		// the trial never finished; the next call may try again
		if b.state == BreakerHalfOpen {
			b.setState(BreakerOpen)
		}
		return err
	}
	// a permanent error means the host answered; only the resource is bad
	var perm *permanentError
	if err == nil || errors.As(err, &perm) {
		b.fails = 0
		if b.state != BreakerClosed {
			b.setState(BreakerClosed)
		}
		return err
	}
	b.fails++
	if b.state == BreakerHalfOpen || b.fails >= b.policy.FailureThreshold {
		b.openedAt = b.now()
		b.setState(BreakerOpen)
		slog.Error("⛔ breaker opened", "host", b.name, "failures", b.fails)
	}
	return err
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// setState must be called with mu held.
func (b *Breaker) setState(s BreakerState) {
	b.state = s
	if b.onChange != nil {
		b.onChange(b.name, s)
	}
}
