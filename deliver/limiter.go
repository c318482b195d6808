package deliver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teranos/vigil/errors"
)

// Limiter enforces max messages per time window using a sliding window.
// Telegram throttles bots that send too fast; staying under a
// per-minute budget keeps proactive bursts from getting the bot muted.
type Limiter struct {
	maxPerMinute int
	window       time.Duration
	mu           sync.Mutex
	sendTimes    []time.Time
	timeNow      func() time.Time // Injectable for testing
}

// NewLimiter creates a rate limiter with real time
func NewLimiter(maxPerMinute int) *Limiter {
	return NewLimiterWithClock(maxPerMinute, time.Now)
}

// NewLimiterWithClock creates a rate limiter with injectable clock (for testing)
func NewLimiterWithClock(maxPerMinute int, timeNow func() time.Time) *Limiter {
	return &Limiter{
		maxPerMinute: maxPerMinute,
		window:       60 * time.Second,
		sendTimes:    make([]time.Time, 0, maxPerMinute),
		timeNow:      timeNow,
	}
}

// Allow checks if a send is allowed under the rate limit.
// Returns an error if the limit is exceeded.
func (r *Limiter) Allow() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeNow()
	r.removeExpired(now)

	if len(r.sendTimes) >= r.maxPerMinute {
		err := errors.Newf("delivery rate limit exceeded: %d messages per minute (limit: %d)",
			len(r.sendTimes), r.maxPerMinute)
		err = errors.WithDetail(err, fmt.Sprintf("Messages in window: %d", len(r.sendTimes)))
		return err
	}

	r.sendTimes = append(r.sendTimes, now)
	return nil
}

// Wait blocks until a send is allowed or the context is cancelled
func (r *Limiter) Wait(ctx context.Context) error {
	for {
		if err := r.Allow(); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// removeExpired drops send timestamps outside the sliding window.
// Must be called with lock held; timestamps are ordered.
func (r *Limiter) removeExpired(now time.Time) {
	cutoff := now.Add(-r.window)

	expired := 0
	for _, sendTime := range r.sendTimes {
		if !sendTime.After(cutoff) {
			expired++
		} else {
			break
		}
	}
	r.sendTimes = r.sendTimes[expired:]
}

// Stats returns current window usage
func (r *Limiter) Stats() (inWindow int, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeExpired(r.timeNow())

	inWindow = len(r.sendTimes)
	remaining = r.maxPerMinute - inWindow
	if remaining < 0 {
		remaining = 0
	}
	return inWindow, remaining
}
