// Package clock abstracts wall-clock time so trial windows and lock
// timestamps stay testable.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock yields the current UTC time.
type Clock interface {
	Now() time.Time
}

// Module provides the system clock.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)

// SystemClock reads the OS clock.
type SystemClock struct{}

// NewSystemClock returns the production clock.
func NewSystemClock() Clock {
	return SystemClock{}
}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FakeClock reports a pinned instant until Advance moves it. Tests use it to
// cross trial windows and month boundaries without sleeping.
type FakeClock struct {
	current time.Time
}

// NewFakeClock pins the clock to t, normalized to UTC.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

// Now returns the pinned instant.
func (f *FakeClock) Now() time.Time { return f.current }

// Advance moves the pinned instant forward by d.
func (f *FakeClock) Advance(d time.Duration) { f.current = f.current.Add(d) }
