package calendar

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestRanges(t *testing.T) {
	cases := []struct {
		name      string
		got       func(time.Time) Range
		at        string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "day crosses utc midnight",
			got:       func(t time.Time) Range { return DayRange(t, 0) },
			at:        "2024-03-15T20:00:00Z",
			wantStart: "2024-03-15T17:00:00Z",
			wantEnd:   "2024-03-16T16:59:59.999Z",
		},
		{
			name:      "yesterday",
			got:       func(t time.Time) Range { return DayRange(t, -1) },
			at:        "2024-03-01T02:00:00Z",
			wantStart: "2024-02-28T17:00:00Z",
			wantEnd:   "2024-02-29T16:59:59.999Z",
		},
		{
			name:      "sunday belongs to preceding monday",
			got:       WeekRange,
			at:        "2024-03-17T05:00:00Z",
			wantStart: "2024-03-10T17:00:00Z",
			wantEnd:   "2024-03-17T16:59:59.999Z",
		},
		{
			name:      "monday starts its own week",
			got:       WeekRange,
			at:        "2024-03-11T00:00:00Z",
			wantStart: "2024-03-10T17:00:00Z",
			wantEnd:   "2024-03-17T16:59:59.999Z",
		},
		{
			name:      "leap day evening is already march",
			got:       MonthRange,
			at:        "2024-02-29T18:00:00Z",
			wantStart: "2024-02-29T17:00:00Z",
			wantEnd:   "2024-03-31T16:59:59.999Z",
		},
		{
			name:      "new year in civil time",
			got:       MonthRange,
			at:        "2023-12-31T18:00:00Z",
			wantStart: "2023-12-31T17:00:00Z",
			wantEnd:   "2024-01-31T16:59:59.999Z",
		},
		{
			name:      "last thirty days",
			got:       func(t time.Time) Range { return LastDaysRange(t, 30) },
			at:        "2024-03-15T05:00:00Z",
			wantStart: "2024-02-14T17:00:00Z",
			wantEnd:   "2024-03-15T16:59:59.999Z",
		},
		{
			name:      "last zero days is today",
			got:       func(t time.Time) Range { return LastDaysRange(t, 0) },
			at:        "2024-03-15T05:00:00Z",
			wantStart: "2024-03-14T17:00:00Z",
			wantEnd:   "2024-03-15T16:59:59.999Z",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.got(mustTime(t, tc.at))
			if want := mustTime(t, tc.wantStart); !r.Start.Equal(want) {
				t.Fatalf("start = %s, want %s", r.Start, want)
			}
			if want := mustTime(t, tc.wantEnd); !r.End.Equal(want) {
				t.Fatalf("end = %s, want %s", r.End, want)
			}
		})
	}
}

func TestRangeEndsOneMilliBeforeNextStart(t *testing.T) {
	at := mustTime(t, "2025-07-09T12:34:56Z")
	pairs := []struct {
		cur, next Range
	}{
		{DayRange(at, 0), DayRange(at, 1)},
		{WeekRange(at), WeekRange(at.Add(7 * 24 * time.Hour))},
		{MonthRange(at), MonthRange(at.AddDate(0, 1, 0))},
	}
	for i, p := range pairs {
		if got := p.next.Start.Sub(p.cur.End); got != time.Millisecond {
			t.Fatalf("case %d: gap = %s, want 1ms", i, got)
		}
		if !p.cur.Contains(at) {
			t.Fatalf("case %d: range %s does not contain %s", i, p.cur, at)
		}
	}
}

func TestTruncate(t *testing.T) {
	at := mustTime(t, "2024-03-14T10:00:00Z")
	if got, want := Truncate(at, Day), mustTime(t, "2024-03-13T17:00:00Z"); !got.Equal(want) {
		t.Fatalf("day = %s, want %s", got, want)
	}
	if got, want := Truncate(at, Week), mustTime(t, "2024-03-10T17:00:00Z"); !got.Equal(want) {
		t.Fatalf("week = %s, want %s", got, want)
	}
	if got, want := Truncate(at, Month), mustTime(t, "2024-02-29T17:00:00Z"); !got.Equal(want) {
		t.Fatalf("month = %s, want %s", got, want)
	}
	// Civil Sunday 2024-03-17 10:00 belongs to the week starting Monday 03-11.
	if got, want := Truncate(mustTime(t, "2024-03-17T03:00:00Z"), Week), mustTime(t, "2024-03-10T17:00:00Z"); !got.Equal(want) {
		t.Fatalf("sunday week = %s, want %s", got, want)
	}
}

func TestCivilDayRoundTrip(t *testing.T) {
	for _, s := range []string{"1969-12-31T16:00:00Z", "1970-01-01T00:00:00Z", "2024-03-15T16:59:59.999Z", "2024-03-15T17:00:00Z"} {
		at := mustTime(t, s)
		start := CivilDayStart(CivilDay(at))
		if !start.Equal(DayRange(at, 0).Start) {
			t.Fatalf("%s: day start = %s, want %s", s, start, DayRange(at, 0).Start)
		}
	}
}
