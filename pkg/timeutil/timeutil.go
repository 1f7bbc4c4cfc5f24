// Package timeutil holds the server's calendar-day conventions.
// A "day" starts at local midnight of a fixed UTC offset configured for the
// whole deployment (no DST), so every date bucket is a pure function of the
// instant and the offset.
package timeutil

import (
	"fmt"
	"time"
)

// Zone returns the fixed-offset location for utcOffsetHours.
func Zone(utcOffsetHours int) *time.Location {
	if utcOffsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*60*60)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, utcOffsetHours int) time.Time {
	local := t.In(Zone(utcOffsetHours))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// TodayKey returns the key of the day containing now: its local midnight.
// Play records, daily challenges and daily aggregates are bucketed by it.
func TodayKey(now time.Time, utcOffsetHours int) time.Time {
	return StartOfDay(now, utcOffsetHours)
}

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Today returns the window of the day containing now.
func Today(now time.Time, utcOffsetHours int) Window {
	start := TodayKey(now, utcOffsetHours)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// Yesterday returns the window of the day before the one containing now.
func Yesterday(now time.Time, utcOffsetHours int) Window {
	end := TodayKey(now, utcOffsetHours)
	return Window{Start: end.AddDate(0, 0, -1), End: end}
}

// Tomorrow returns the key of the day after the one containing now.
func Tomorrow(now time.Time, utcOffsetHours int) time.Time {
	return TodayKey(now, utcOffsetHours).AddDate(0, 0, 1)
}
