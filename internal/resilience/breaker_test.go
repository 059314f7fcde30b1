package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("expected underlying error, got %v", err)
		}
	}

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected call through closed breaker, got %v", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return errBoom })
	}

	err := b.Execute(func() error {
		t.Fatal("fn must not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return errBoom })

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("breaker opened despite reset: %v", err)
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Minute)
	b.clock = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open before cooldown, got %v", err)
	}

	// After the cooldown a probe goes through; success closes the circuit.
	now = now.Add(2 * time.Minute)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("circuit should be closed: %v", err)
	}
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Minute)
	b.clock = func() time.Time { return now }

	_ = b.Execute(func() error { return errBoom })

	now = now.Add(2 * time.Minute)
	if err := b.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("probe should run and fail: %v", err)
	}

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("failed probe must reopen the circuit, got %v", err)
	}
}
