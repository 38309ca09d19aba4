// Package calendar computes day, week and month boundaries in the fixed
// UTC+7 civil offset the dashboard reports in.
//
// Boundaries are computed with integer millisecond arithmetic against a
// constant offset. No time zone database is consulted.
package calendar

import (
	"fmt"
	"time"
)

// OffsetMillis is the civil offset from UTC (UTC+7).
const OffsetMillis int64 = 7 * 60 * 60 * 1000

const dayMillis int64 = 24 * 60 * 60 * 1000

// Unit is a bucketing granularity for time series.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
)

// Range is an inclusive instant range. End is always the start of the
// following period minus one millisecond.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start.Format(time.RFC3339Nano), r.End.Format(time.RFC3339Nano))
}

// civil shifts t into the UTC+7 wall clock, expressed as a UTC time so that
// Year/Month/Day read the civil calendar fields.
func civil(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli() + OffsetMillis).UTC()
}

// midnight returns the instant of civil midnight for the given calendar
// fields. Overflowing days and months are normalised.
func midnight(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli() - OffsetMillis
}

func instant(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func span(startMs, nextStartMs int64) Range {
	return Range{Start: instant(startMs), End: instant(nextStartMs - 1)}
}

// DayRange returns the civil day containing t, shifted by offsetDays.
func DayRange(t time.Time, offsetDays int) Range {
	c := civil(t)
	d := c.Day() + offsetDays
	return span(midnight(c.Year(), c.Month(), d), midnight(c.Year(), c.Month(), d+1))
}

// WeekRange returns the ISO week (Monday through Sunday) containing t.
func WeekRange(t time.Time) Range {
	c := civil(t)
	d := c.Day() + mondayShift(c.Weekday())
	return span(midnight(c.Year(), c.Month(), d), midnight(c.Year(), c.Month(), d+7))
}

// MonthRange returns the civil month containing t.
func MonthRange(t time.Time) Range {
	c := civil(t)
	return span(midnight(c.Year(), c.Month(), 1), midnight(c.Year(), c.Month()+1, 1))
}

// LastDaysRange returns the n civil days ending with the day containing t.
// n below one is treated as one.
func LastDaysRange(t time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	c := civil(t)
	d := c.Day()
	return span(midnight(c.Year(), c.Month(), d-(n-1)), midnight(c.Year(), c.Month(), d+1))
}

// Truncate returns the start of the unit-sized civil period containing t.
// Weeks start on Monday, the same as WeekRange.
func Truncate(t time.Time, unit Unit) time.Time {
	switch unit {
	case Week:
		return WeekRange(t).Start
	case Month:
		return MonthRange(t).Start
	default:
		return DayRange(t, 0).Start
	}
}

// CivilDay returns the number of whole civil days between the Unix epoch
// and the day containing t.
func CivilDay(t time.Time) int64 {
	ms := t.UnixMilli() + OffsetMillis
	day := ms / dayMillis
	if ms%dayMillis < 0 {
		day--
	}
	return day
}

// CivilDayStart is the inverse of CivilDay.
func CivilDayStart(day int64) time.Time {
	return instant(day*dayMillis - OffsetMillis)
}

func mondayShift(wd time.Weekday) int {
	if wd == time.Sunday {
		return -6
	}
	return 1 - int(wd)
}
