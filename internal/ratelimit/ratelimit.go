package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Limiter is a token bucket per key, used to cap food lookups per user.
type Limiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
	clk      Clock
}

// NewLimiter allows perMinute requests per key and minute, all of which may be
// spent at once.
func NewLimiter(perMinute int, clk Clock) *Limiter {
	if clk == nil {
		clk = RealClock{}
	}
	if perMinute < 1 {
		perMinute = 1
	}
	return &Limiter{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		clk:      clk,
	}
}

func (l *Limiter) limiter(key int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow takes a token for key. When none is left it reports how long to wait.
func (l *Limiter) Allow(key int64) (bool, time.Duration) {
	now := l.clk.Now()
	r := l.limiter(key).ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (l *Limiter) Reset(key int64) {
	l.mu.Lock()
	delete(l.limiters, key)
	l.mu.Unlock()
}
