// Package resilience keeps question generation alive when an LLM backend
// misbehaves. It provides a three-state circuit breaker and a failover group
// that tries configured backup providers when the primary fails or has a
// tripped breaker.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker is tripped and
// the cooldown has not yet elapsed.
var ErrBreakerOpen = errors.New("resilience: breaker open")

// breakerState is the operating mode of a [Breaker].
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateProbing
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// BreakerConfig holds tuning knobs for a [Breaker].
type BreakerConfig struct {
	// Name labels the breaker in log messages.
	Name string

	// TripAfter is the number of consecutive failures that opens the
	// breaker. Default: 3.
	TripAfter int

	// Cooldown is how long the breaker stays open before allowing a single
	// probe call. Default: 30s.
	Cooldown time.Duration

	// Logger receives state-transition messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Breaker is a three-state circuit breaker: closed (calls pass), open (calls
// fail fast with [ErrBreakerOpen]), and probing (after the cooldown, one call
// is let through; success closes the breaker, failure re-opens it).
type Breaker struct {
	name      string
	tripAfter int
	cooldown  time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
}

// NewBreaker creates a [Breaker]. Zero-value config fields get defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Breaker{
		name:      cfg.Name,
		tripAfter: cfg.TripAfter,
		cooldown:  cfg.Cooldown,
		logger:    cfg.Logger,
	}
}

// Do runs fn if the breaker allows it and feeds the outcome back into the
// state machine.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

// Tripped reports whether a call made right now would fail fast.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateOpen && time.Since(b.openedAt) < b.cooldown
}

// admit decides whether a call may proceed, transitioning open → probing
// when the cooldown has elapsed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrBreakerOpen
		}
		b.state = stateProbing
		b.logger.Info("breaker allowing probe call", "breaker", b.name)
	case stateProbing:
		// One probe at a time.
		return ErrBreakerOpen
	}
	return nil
}

// record feeds a call outcome back into the state machine.
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == stateProbing {
			b.logger.Info("breaker closed after successful probe", "breaker", b.name)
		}
		b.state = stateClosed
		b.failures = 0
		return
	}

	if b.state == stateProbing {
		b.state = stateOpen
		b.openedAt = time.Now()
		b.logger.Warn("breaker re-opened after failed probe", "breaker", b.name)
		return
	}

	b.failures++
	if b.failures >= b.tripAfter {
		b.state = stateOpen
		b.openedAt = time.Now()
		b.logger.Warn("breaker opened",
			"breaker", b.name,
			"consecutive_failures", b.failures,
		)
	}
}
