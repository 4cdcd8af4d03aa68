package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// LimitError reports a rejected request and when the window reopens.
type LimitError struct {
	Tier       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for tier %q, retry after %s", e.Tier, e.RetryAfter.Round(time.Second))
}

// Is matches ErrTooManyRequests.
func (e *LimitError) Is(target error) bool { return target == ErrTooManyRequests }

// InProcessLimiter is a fixed-window rate limiter that counts requests
// per subject and tier in memory.
type InProcessLimiter struct {
	tiers      map[string]int // tier -> requests per minute
	defaultRPM int
	window     time.Duration
	now        func() time.Time

	mu        sync.Mutex
	counters  map[string]*counter
	lastPrune time.Time
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier limits in
// requests per minute. Tiers without an entry use defaultRPM; zero or a
// negative value means unlimited.
func NewInProcessLimiter(tiers map[string]int, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		window:     time.Minute,
		now:        time.Now,
		counters:   make(map[string]*counter),
	}
}

// Allow checks if the request is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.RateTier()

	rpm := l.defaultRPM
	if v, ok := l.tiers[tier]; ok {
		rpm = v
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= l.window {
		l.counters[key] = &counter{count: 1, windowAt: now}
		return nil
	}

	c.count++
	if c.count > rpm {
		return &LimitError{Tier: tier, RetryAfter: c.windowAt.Add(l.window).Sub(now)}
	}
	return nil
}

// prune drops expired windows at most once per window.
// Must be called with l.mu held.
func (l *InProcessLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	for k, c := range l.counters {
		if now.Sub(c.windowAt) >= l.window {
			delete(l.counters, k)
		}
	}
	l.lastPrune = now
}
