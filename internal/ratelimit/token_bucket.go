// Package ratelimit paces outbound API traffic with in-memory token
// buckets. The probe path keeps one bucket per AWS region: Bedrock
// throttles Converse per account and region, so a probe of a large
// document must not burn the budget production traffic runs on.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a single token bucket. A rate of zero never refills, which
// makes depletion deterministic in tests.
type Limiter struct {
	mu         sync.Mutex
	rate       float64 // tokens added per second
	burst      float64 // maximum token capacity
	tokens     float64 // current token count
	lastRefill time.Time
}

// New creates a Limiter allowing ratePerSecond calls/s with a burst
// capacity. If burst <= 0 it defaults to ratePerSecond.
func New(ratePerSecond, burst float64) *Limiter {
	if burst <= 0 {
		burst = ratePerSecond
	}
	return &Limiter{
		rate:       ratePerSecond,
		burst:      burst,
		tokens:     burst,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token and reports whether the call may proceed.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now

	if l.tokens >= 1.0 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done. The poll
// interval bounds the extra latency added past the nominal rate.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// Store maintains one Limiter per key, created on first use. All limiters
// share the same rate and burst.
type Store struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	rate     float64
	burst    float64
}

// NewStore creates a Store whose per-key limiters share rate and burst.
func NewStore(ratePerSecond, burst float64) *Store {
	return &Store{
		limiters: make(map[string]*Limiter),
		rate:     ratePerSecond,
		burst:    burst,
	}
}

// Allow consumes one token from the bucket for key.
func (s *Store) Allow(key string) bool {
	return s.limiter(key).Allow()
}

// Wait blocks on the bucket for key until a token is available or ctx is
// done.
func (s *Store) Wait(ctx context.Context, key string) error {
	return s.limiter(key).Wait(ctx)
}

func (s *Store) limiter(key string) *Limiter {
	// Fast path: limiter already exists.
	s.mu.RLock()
	l, ok := s.limiters[key]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring the write lock.
	if l, ok = s.limiters[key]; ok {
		return l
	}
	l = New(s.rate, s.burst)
	s.limiters[key] = l
	return l
}
