// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. The business timezone is only used to
// compute date boundaries for show schedules and digest windows.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone. Show schedules from
	// the tracked providers are published in mainland-China local time.
	DefaultTimezone = "Asia/Shanghai"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location, auto-initializing with the
// default when Init was never called.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the UTC instant at which the business-timezone day
// containing t begins.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location())
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
	return start.UTC()
}

// SameBusinessDay reports whether a and b fall on the same business-timezone
// calendar day.
func SameBusinessDay(a, b time.Time) bool {
	la, lb := a.In(Location()), b.In(Location())
	return la.Year() == lb.Year() && la.YearDay() == lb.YearDay()
}
