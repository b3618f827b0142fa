package flowtree

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_NonPositiveAttemptsMeansOne(t *testing.T) {
	if got := Retry(0).Policy().MaxAttempts; got != 1 {
		t.Fatalf("expected MaxAttempts 1, got %d", got)
	}
	if got := Retry(-3).Policy().MaxAttempts; got != 1 {
		t.Fatalf("expected MaxAttempts 1, got %d", got)
	}
}

func TestRetry_WithExponentialBackoffDefaults(t *testing.T) {
	p := Retry(4).WithExponentialBackoff(10*time.Millisecond, 0, 25*time.Millisecond).Policy()

	if p.BackoffMultiplier != 2.0 {
		t.Fatalf("expected default multiplier 2.0, got %v", p.BackoffMultiplier)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}
	for i, w := range want {
		if got := p.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d): expected %v, got %v", i+1, w, got)
		}
	}
}

func TestRetry_ConstantAndImmediate(t *testing.T) {
	p := Retry(3).WithConstantBackoff(5 * time.Millisecond).Policy()
	if p.backoff(1) != 5*time.Millisecond || p.backoff(3) != 5*time.Millisecond {
		t.Fatalf("expected constant 5ms backoff, got %v / %v", p.backoff(1), p.backoff(3))
	}

	p = Retry(3).WithConstantBackoff(5 * time.Millisecond).Immediate().Policy()
	if p.backoff(2) != 0 {
		t.Fatalf("expected no backoff, got %v", p.backoff(2))
	}
}

func TestRetry_WrapRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	effect := Retry(3).Immediate().Wrap(func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err := effect(context.Background()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_WrapReturnsLastError(t *testing.T) {
	attempts := 0
	effect := Retry(2).WithConstantBackoff(time.Millisecond).Wrap(func(context.Context) error {
		attempts++
		return errors.New("boom")
	})

	err := effect(context.Background())
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_WrapStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	effect := Retry(5).WithConstantBackoff(time.Hour).Wrap(func(context.Context) error {
		attempts++
		cancel()
		return errors.New("boom")
	})

	if err := effect(ctx); err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt after cancel, got %d", attempts)
	}
}
