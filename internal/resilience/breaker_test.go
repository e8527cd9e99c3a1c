package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 3, Cooldown: time.Hour})

	for range 3 {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("Do() = %v, want errBoom", err)
		}
	}

	if !b.Tripped() {
		t.Error("breaker should be tripped after three failures")
	}
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("Do() while open = %v, want ErrBreakerOpen", err)
	}
}

func TestBreaker_SuccessResetsCounter(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 2, Cooldown: time.Hour})

	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errBoom })

	if b.Tripped() {
		t.Error("interleaved success should reset the failure counter")
	}
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 1, Cooldown: 10 * time.Millisecond})

	_ = b.Do(func() error { return errBoom })
	if !b.Tripped() {
		t.Fatal("breaker should trip after one failure")
	}

	time.Sleep(20 * time.Millisecond)

	// First call after cooldown is the probe; success closes the breaker.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if b.Tripped() {
		t.Error("breaker should close after a successful probe")
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("call after close failed: %v", err)
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", TripAfter: 1, Cooldown: 10 * time.Millisecond})

	_ = b.Do(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("probe = %v, want errBoom", err)
	}
	if !b.Tripped() {
		t.Error("breaker should re-open after a failed probe")
	}
}
