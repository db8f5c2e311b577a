package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

// --- New Tests ---

func TestNew_Interval(t *testing.T) {
	tests := []struct {
		rps  float64
		want time.Duration
	}{
		{0.5, 2 * time.Second},
		{2, 500 * time.Millisecond},
		{0, 0},
		{-3, 0},
		{1.0 / 7200, MaxInterval},
		{1e-12, MaxInterval},
		{math.SmallestNonzeroFloat64, MaxInterval},
		{math.Inf(1), 0},
	}

	for _, tt := range tests {
		if got := New(tt.rps).Interval(); got != tt.want {
			t.Errorf("New(%v).Interval() = %v, want %v", tt.rps, got, tt.want)
		}
	}
}

// --- Wait Tests ---

func TestWait_FirstCallImmediate(t *testing.T) {
	l := New(0.1) // 10s interval
	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first Wait took %v, want immediate", elapsed)
	}
}

func TestWait_SpacesSequentialCalls(t *testing.T) {
	l := New(20) // 50ms
	ctx := context.Background()

	_ = l.Wait(ctx)
	first := time.Now()
	_ = l.Wait(ctx)
	gap := time.Since(first)

	if gap < 45*time.Millisecond {
		t.Errorf("gap between waits = %v, want >= ~50ms", gap)
	}
}

func TestWait_DisabledNoDelay(t *testing.T) {
	l := New(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled limiter took %v for 100 waits", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSerialized(t *testing.T) {
	l := New(50) // 20ms
	const n = 5

	var mu sync.Mutex
	var times []time.Time
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Wait(context.Background())
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	earliest, latest := times[0], times[0]
	for _, ts := range times {
		if ts.Before(earliest) {
			earliest = ts
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	if spread := latest.Sub(earliest); spread < 70*time.Millisecond {
		t.Errorf("spread across %d callers = %v, want >= ~80ms", n, spread)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(0.01) // 100s interval
	_ = l.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled Wait took %v", elapsed)
	}
}

func TestWait_FakeClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l := New(1)
	l.now = func() time.Time { return now }

	_ = l.Wait(context.Background())
	now = base.Add(3 * time.Second)

	start := time.Now()
	_ = l.Wait(context.Background())
	if time.Since(start) > 50*time.Millisecond {
		t.Error("Wait should not sleep once the interval has already elapsed")
	}
}
