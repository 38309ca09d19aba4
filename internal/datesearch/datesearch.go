// Package datesearch interprets free-text search input as a date
// expression. A search such as "15", "15/3", "2024-03-15" or "15 agustus"
// turns into either a recurring day predicate or a concrete day range.
package datesearch

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"dompet/internal/calendar"
)

// Mode classifies a parsed date search.
type Mode int

const (
	// NoMatch means the input is not a date expression.
	NoMatch Mode = iota
	// DayOnly matches a day of month in any month and year.
	DayOnly
	// DayMonth matches a day and month in any year.
	DayMonth
	// FullDate matches one concrete day.
	FullDate
)

func (m Mode) String() string {
	switch m {
	case DayOnly:
		return "day_only"
	case DayMonth:
		return "day_month"
	case FullDate:
		return "full_date"
	default:
		return "no_match"
	}
}

// Result is the outcome of Parse. Day and Month are set for DayOnly and
// DayMonth; Range is set for FullDate.
type Result struct {
	Mode  Mode
	Day   int
	Month time.Month
	Range calendar.Range
}

var (
	dayOnlyPattern = regexp.MustCompile(`^(\d{1,2})$`)
	isoPattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericPattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?$`)
	textPattern    = regexp.MustCompile(`^(\d{1,2})\s+([a-zA-Z.]+)(?:\s+(\d{4}))?$`)
)

var monthAliases = map[string]time.Month{
	"jan": time.January, "januari": time.January, "january": time.January,
	"feb": time.February, "februari": time.February, "february": time.February,
	"mar": time.March, "maret": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"mei": time.May, "may": time.May,
	"jun": time.June, "juni": time.June, "june": time.June,
	"jul": time.July, "juli": time.July, "july": time.July,
	"agu": time.August, "ags": time.August, "agust": time.August, "agustus": time.August,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"okt": time.October, "oktober": time.October, "oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"des": time.December, "desember": time.December, "dec": time.December, "december": time.December,
}

// MonthAlias resolves an Indonesian or English month name or abbreviation.
// Dots are ignored and the lookup is case-insensitive.
func MonthAlias(token string) (time.Month, bool) {
	m, ok := monthAliases[strings.ToLower(strings.ReplaceAll(token, ".", ""))]
	return m, ok
}

// Parse interprets search as a date expression. Patterns are tried in a
// fixed order and the first one that matches decides the outcome, even when
// its values are out of range.
func Parse(search string) Result {
	s := strings.ToLower(strings.TrimSpace(search))
	if s == "" {
		return Result{}
	}

	if m := dayOnlyPattern.FindStringSubmatch(s); m != nil {
		day := atoi(m[1])
		if day < 1 || day > 31 {
			return Result{}
		}
		return Result{Mode: DayOnly, Day: day}
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return fullDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := numericPattern.FindStringSubmatch(s); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if m[3] != "" {
			year := atoi(m[3])
			if len(m[3]) == 2 {
				year += 2000
			}
			return fullDate(year, month, day)
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return Result{}
		}
		return Result{Mode: DayMonth, Day: day, Month: time.Month(month)}
	}

	if m := textPattern.FindStringSubmatch(s); m != nil {
		day := atoi(m[1])
		month, ok := MonthAlias(m[2])
		if !ok || day < 1 || day > 31 {
			return Result{}
		}
		if m[3] != "" {
			return fullDate(atoi(m[3]), int(month), day)
		}
		return Result{Mode: DayMonth, Day: day, Month: month}
	}

	return Result{}
}

// fullDate builds the UTC day [00:00:00.000, 23:59:59.999] for the given
// fields, rejecting combinations that do not round-trip (31/02, month 13).
func fullDate(year, month, day int) Result {
	if month < 1 || month > 12 || day < 1 {
		return Result{}
	}
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if start.Year() != year || int(start.Month()) != month || start.Day() != day {
		return Result{}
	}
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return Result{Mode: FullDate, Range: calendar.Range{Start: start, End: end}}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
