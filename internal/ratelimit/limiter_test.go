package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewInterval(t *testing.T) {
	l := NewInterval(DefaultInterval)

	if l.Interval() != 500*time.Millisecond {
		t.Errorf("Interval() = %v, want 500ms", l.Interval())
	}
}

func TestLimiter_FirstRequestImmediate(t *testing.T) {
	l := NewInterval(time.Second)

	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait took %v, want immediate", elapsed)
	}
}

func TestLimiter_SpacesRequests(t *testing.T) {
	l := NewInterval(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// Three requests need at least two full intervals.
	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Errorf("3 waits took %v, want >= ~200ms", elapsed)
	}
	if l.Stats().Waits < 2 {
		t.Errorf("Waits = %d, want >= 2", l.Stats().Waits)
	}
}

func TestLimiter_ZeroIntervalDisabled(t *testing.T) {
	l := NewInterval(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled limiter took %v", elapsed)
	}
	if !l.Allow() {
		t.Error("Allow() should be true when disabled")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewInterval(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() should return an error after cancel")
	}
}

func TestLimiter_Allow(t *testing.T) {
	l := NewInterval(time.Hour)

	if !l.Allow() {
		t.Error("first Allow() should succeed")
	}
	if l.Allow() {
		t.Error("second Allow() within interval should fail")
	}
}

func TestLimiter_SetInterval(t *testing.T) {
	l := NewInterval(time.Hour)
	l.Allow()

	l.SetInterval(0)
	if !l.Allow() {
		t.Error("Allow() should succeed after disabling")
	}
	if l.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0", l.Interval())
	}
}
