package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestAllowUntilBurstSpent(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 7, 16, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(2, clk)

	ok, _ := l.Allow(1)
	assert.True(t, ok)
	ok, _ = l.Allow(1)
	assert.True(t, ok)

	ok, wait := l.Allow(1)
	assert.False(t, ok)
	assert.InDelta(t, float64(30*time.Second), float64(wait), float64(time.Millisecond))

	clk.Advance(31 * time.Second)
	ok, _ = l.Allow(1)
	assert.True(t, ok)
}

func TestKeysAreIndependent(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	l := NewLimiter(1, clk)

	ok, _ := l.Allow(1)
	assert.True(t, ok)
	ok, _ = l.Allow(1)
	assert.False(t, ok)

	ok, _ = l.Allow(2)
	assert.True(t, ok)
}

func TestReset(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	l := NewLimiter(1, clk)

	l.Allow(1)
	l.Reset(1)
	ok, _ := l.Allow(1)
	assert.True(t, ok)
}

func TestNonPositiveRate(t *testing.T) {
	l := NewLimiter(0, nil)
	ok, _ := l.Allow(1)
	assert.True(t, ok)
}
