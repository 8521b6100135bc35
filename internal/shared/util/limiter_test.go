package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_BurstThenRejectsShortDeadline(t *testing.T) {
	// 1 token per second, burst of 2
	l := NewLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx, 1); err != nil {
			t.Fatalf("expected burst token %d, got %v", i, err)
		}
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(short, 1); err == nil {
		t.Error("expected wait beyond the deadline to fail once the burst is spent")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, 1); err != nil {
			t.Fatalf("expected unlimited limiter to allow token %d: %v", i, err)
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	if err := l.Wait(context.Background(), 1); err != nil { // consume burst
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, 1)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}
