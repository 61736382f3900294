package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("test failure")

func TestBreakerStartsClosed(t *testing.T) {
	b := New(DefaultConfig())
	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(Config{Threshold: 3, ResetTimeout: time.Minute, HalfOpenSuccesses: 1})

	for i := 0; i < 3; i++ {
		b.Failure()
	}

	if b.State() != Open {
		t.Errorf("State() = %v, want Open", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	b := New(Config{Threshold: 5, ResetTimeout: time.Minute, HalfOpenSuccesses: 1})

	for i := 0; i < 4; i++ {
		b.Failure()
	}

	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{Threshold: 3, ResetTimeout: time.Minute, HalfOpenSuccesses: 1})

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed after success reset", b.State())
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenSuccesses: 1})

	b.Failure()
	if b.State() != Open {
		t.Fatalf("State() = %v, want Open", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after reset timeout = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("State() = %v, want HalfOpen", b.State())
	}
}

func TestBreakerClosesAfterHalfOpenSuccesses(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 2})

	b.Failure()
	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil", err)
	}

	b.Success()
	if b.State() != HalfOpen {
		t.Errorf("State() = %v, want HalfOpen after 1 of 2 successes", b.State())
	}
	b.Success()
	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed after 2 successes", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 1})

	b.Failure()
	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil", err)
	}

	b.Failure()
	if b.State() != Open {
		t.Errorf("State() = %v, want Open after half-open failure", b.State())
	}
}

func TestBreakerReset(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Minute, HalfOpenSuccesses: 1})

	b.Failure()
	if b.State() != Open {
		t.Fatalf("State() = %v, want Open", b.State())
	}

	b.Reset()
	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed after Reset", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after Reset = %v, want nil", err)
	}
}

func TestBreakerExecute(t *testing.T) {
	b := New(Config{Threshold: 2, ResetTimeout: time.Minute, HalfOpenSuccesses: 1})

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}

	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return errTest }); !errors.Is(err, errTest) {
			t.Errorf("Execute() = %v, want errTest", err)
		}
	}

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("Execute() with open breaker = %v, want ErrOpen", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Minute, HalfOpenSuccesses: 1})

	got, err := ExecuteWithResult(b, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("ExecuteWithResult() = (%q, %v), want (ok, nil)", got, err)
	}

	if _, err := ExecuteWithResult(b, func() (string, error) { return "", errTest }); !errors.Is(err, errTest) {
		t.Errorf("ExecuteWithResult() = %v, want errTest", err)
	}

	got, err = ExecuteWithResult(b, func() (string, error) { return "unused", nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("ExecuteWithResult() with open breaker = %v, want ErrOpen", err)
	}
	if got != "" {
		t.Errorf("ExecuteWithResult() value = %q, want zero value", got)
	}
}

func TestBreakerHook(t *testing.T) {
	var transitions []State
	b := New(Config{Threshold: 1, ResetTimeout: time.Minute, HalfOpenSuccesses: 1}).
		WithHook(func(from, to State) { transitions = append(transitions, to) })

	b.Failure()
	b.Reset()

	if len(transitions) != 2 || transitions[0] != Open || transitions[1] != Closed {
		t.Errorf("transitions = %v, want [Open Closed]", transitions)
	}
}

func TestStageConfig(t *testing.T) {
	cfg := StageConfig()
	if cfg.Threshold != StageThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, StageThreshold)
	}
	if cfg.ResetTimeout != StageResetTimeout {
		t.Errorf("ResetTimeout = %v, want %v", cfg.ResetTimeout, StageResetTimeout)
	}
	if cfg.HalfOpenSuccesses != StageHalfOpenSuccesses {
		t.Errorf("HalfOpenSuccesses = %d, want %d", cfg.HalfOpenSuccesses, StageHalfOpenSuccesses)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, DefaultThreshold)
	}
	if cfg.ResetTimeout != DefaultResetTimeout {
		t.Errorf("ResetTimeout = %v, want %v", cfg.ResetTimeout, DefaultResetTimeout)
	}
	if cfg.HalfOpenSuccesses != DefaultHalfOpenSuccesses {
		t.Errorf("HalfOpenSuccesses = %d, want %d", cfg.HalfOpenSuccesses, DefaultHalfOpenSuccesses)
	}
}

func TestStateString(t *testing.T) {
	if Closed.String() != "closed" || Open.String() != "open" || HalfOpen.String() != "half-open" {
		t.Error("State strings mismatch")
	}
}
