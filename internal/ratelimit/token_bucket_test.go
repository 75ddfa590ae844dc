package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := New(10, 5)
	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("expected allow on call %d within burst", i+1)
		}
	}
}

func TestLimiter_DepletedBucketBlocks(t *testing.T) {
	// Zero rate: the bucket never refills.
	l := New(0, 2)
	l.Allow()
	l.Allow()
	if l.Allow() {
		t.Fatal("expected denial after burst exhausted")
	}
}

func TestLimiter_RefillOverTime(t *testing.T) {
	l := New(1000, 1)
	l.Allow() // exhaust the burst
	time.Sleep(5 * time.Millisecond)
	if !l.Allow() {
		t.Fatal("expected allow after refill")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := New(0, 1)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestStore_PerKeyBuckets(t *testing.T) {
	s := NewStore(0, 2)
	s.Allow("eu-central-1")
	s.Allow("eu-central-1")
	if s.Allow("eu-central-1") {
		t.Fatal("expected eu-central-1 bucket to be exhausted")
	}
	// Another region has its own fresh bucket.
	if !s.Allow("us-east-1") {
		t.Fatal("expected allow on fresh us-east-1 bucket")
	}
}

func TestStore_WaitUsesKeyBucket(t *testing.T) {
	s := NewStore(0, 1)
	if err := s.Wait(context.Background(), "eu-central-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Wait(ctx, "eu-central-1"); err != context.Canceled {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
