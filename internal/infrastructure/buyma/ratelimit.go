package buyma

import (
	"context"
	"sync"
	"time"
)

// quotaWindow is one rolling-window counter
type quotaWindow struct {
	limit  int
	span   time.Duration
	stamps []time.Time
}

// prune drops stamps that fell out of the window
func (w *quotaWindow) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// freeAt returns when the next slot opens; zero time means a slot is free now
func (w *quotaWindow) freeAt(now time.Time) time.Time {
	w.prune(now)
	if len(w.stamps) < w.limit {
		return time.Time{}
	}
	return w.stamps[len(w.stamps)-w.limit].Add(w.span)
}

// QuotaLimiter serializes marketplace calls under two rolling quotas plus a
// minimum spacing between consecutive calls. Acquire blocks until a call is
// allowed and records it; it is safe for concurrent use although the
// pipeline issues calls sequentially.
type QuotaLimiter struct {
	mu       sync.Mutex
	hourly   quotaWindow
	daily    quotaWindow
	spacing  time.Duration
	lastCall time.Time

	nowFn func() time.Time
}

// NewQuotaLimiter creates a limiter for the given configuration
func NewQuotaLimiter(cfg *ClientConfig) *QuotaLimiter {
	return &QuotaLimiter{
		hourly:  quotaWindow{limit: cfg.GlobalHourlyQuota, span: time.Hour},
		daily:   quotaWindow{limit: cfg.ProductDailyQuota, span: 24 * time.Hour},
		spacing: cfg.MinCallInterval,
		nowFn:   time.Now,
	}
}

// Acquire blocks until a call is permitted, then records it. It returns the
// context error if the context is cancelled while waiting.
func (l *QuotaLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.nowFn()
		wait := l.nextFreeIn(now)
		if wait <= 0 {
			l.hourly.stamps = append(l.hourly.stamps, now)
			l.daily.stamps = append(l.daily.stamps, now)
			l.lastCall = now
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextFreeIn computes how long to wait before the next call. Caller holds the
// lock.
func (l *QuotaLimiter) nextFreeIn(now time.Time) time.Duration {
	var at time.Time
	if !l.lastCall.IsZero() {
		at = l.lastCall.Add(l.spacing)
	}
	if t := l.hourly.freeAt(now); t.After(at) {
		at = t
	}
	if t := l.daily.freeAt(now); t.After(at) {
		at = t
	}
	if at.IsZero() {
		return 0
	}
	return at.Sub(now)
}

// Seed pre-fills both windows after a restart using counts recovered from
// the call log. The recovered calls are stamped at the current time, which
// over-reserves briefly but never lets the process exceed a quota it cannot
// observe.
func (l *QuotaLimiter) Seed(hourlyUsed, dailyUsed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	for i := 0; i < hourlyUsed && i < l.hourly.limit; i++ {
		l.hourly.stamps = append(l.hourly.stamps, now)
	}
	for i := 0; i < dailyUsed && i < l.daily.limit; i++ {
		l.daily.stamps = append(l.daily.stamps, now)
	}
}

// Usage returns the current consumption of both windows
func (l *QuotaLimiter) Usage() (hourlyUsed, dailyUsed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	l.hourly.prune(now)
	l.daily.prune(now)
	return len(l.hourly.stamps), len(l.daily.stamps)
}
