package spin

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state = closed, got %v", cb.State())
	}

	if cb.Failures() != 0 {
		t.Errorf("Expected failures = 0, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_SuccessfulCalls(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	for i := 0; i < 10; i++ {
		err := cb.Call(func() error {
			return nil
		})

		if err != nil {
			t.Fatalf("Expected success, got error: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("Expected state = closed after successes, got %v", cb.State())
	}
}

func TestCircuitBreaker_TransitionToOpen(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxFailures:         3,
		Timeout:             1 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
	cb := NewCircuitBreaker(config)

	testErr := errors.New("gateway unreachable")
	for i := 0; i < 3; i++ {
		err := cb.Call(func() error {
			return testErr
		})

		if err != testErr {
			t.Fatalf("Expected test error, got: %v", err)
		}
	}

	if cb.State() != StateOpen {
		t.Errorf("Expected state = open after %d failures, got %v", config.MaxFailures, cb.State())
	}

	// Next call should fail immediately without executing function
	executed := false
	err := cb.Call(func() error {
		executed = true
		return nil
	})

	if err != ErrCircuitOpen {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}

	if executed {
		t.Error("Function should not execute when circuit is open")
	}
}

func TestCircuitBreaker_RecoveryThroughHalfOpen(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxFailures:         2,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 1,
	}
	cb := NewCircuitBreaker(config)

	testErr := errors.New("gateway unreachable")
	for i := 0; i < 2; i++ {
		_ = cb.Call(func() error { return testErr })
	}

	if cb.State() != StateOpen {
		t.Fatalf("Expected state = open, got %v", cb.State())
	}

	// After the open timeout, one probe is allowed; success closes the circuit
	time.Sleep(60 * time.Millisecond)

	err := cb.Call(func() error { return nil })
	if err != nil {
		t.Fatalf("Expected probe to succeed, got: %v", err)
	}

	if cb.State() != StateClosed {
		t.Errorf("Expected state = closed after probe success, got %v", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxFailures:         1,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 1,
	}
	cb := NewCircuitBreaker(config)

	testErr := errors.New("gateway unreachable")
	_ = cb.Call(func() error { return testErr })

	time.Sleep(60 * time.Millisecond)

	_ = cb.Call(func() error { return testErr })

	if cb.State() != StateOpen {
		t.Errorf("Expected state = open after failed probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxFailures:         1,
		Timeout:             time.Minute,
		MaxRequestsHalfOpen: 1,
	}
	cb := NewCircuitBreaker(config)

	_ = cb.Call(func() error { return errors.New("gateway unreachable") })
	if cb.State() != StateOpen {
		t.Fatalf("Expected state = open, got %v", cb.State())
	}

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("Expected state = closed after reset, got %v", cb.State())
	}
}
