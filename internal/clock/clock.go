package clock

import (
	"sync"
	"time"
)

// Clock is the wall-clock source used by the study engines.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now returns the current local time
func (Real) Now() time.Time {
	return time.Now()
}

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a manual clock frozen at t
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now returns the frozen time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from a to b.
// Both instants are reduced to their local calendar date first, so a
// daylight-saving shift never produces a fractional day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// FromMillis converts Unix milliseconds to local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(time.Local)
}
