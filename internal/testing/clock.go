package testing

import (
	"sync"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// ManualClock provides a controllable clock for testing time-dependent behavior.
type ManualClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewManualClock creates a new ManualClock set to January 1, 2020,
// 00:00:00 UTC, well after the ledger epoch.
func NewManualClock() *ManualClock {
	return NewManualClockAt(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
}

// NewManualClockAt creates a new ManualClock set to the specified time.
func NewManualClockAt(t time.Time) *ManualClock {
	return &ManualClock{current: t}
}

// Now returns the current time on the clock.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// LedgerTime returns the current time in ledger seconds.
func (c *ManualClock) LedgerTime() types.LedgerTime {
	return types.ToLedgerTime(c.Now())
}

// Advance moves the clock forward by d. Negative durations are ignored so
// the clock stays monotonic.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// AdvanceTo moves the clock to lt if lt is in the future.
func (c *ManualClock) AdvanceTo(lt types.LedgerTime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := lt.Time(); t.After(c.current) {
		c.current = t
	}
}

// Set sets the clock to a specific time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
