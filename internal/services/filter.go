package services

import (
	"strings"
	"time"

	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/datesearch"
	"dompet/internal/query"
)

// Period is a listing window relative to now.
type Period string

const (
	PeriodToday      Period = "today"
	PeriodYesterday  Period = "yesterday"
	PeriodThisWeek   Period = "this_week"
	PeriodLast30Days Period = "last_30_days"
	PeriodThisMonth  Period = "this_month"
	PeriodAllTime    Period = "all_time"
)

// CategoryAll disables the category restriction.
const CategoryAll = "all"

// ParsePeriod validates a listing period. Empty means this_month.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.TrimSpace(s))
	switch p {
	case "":
		return PeriodThisMonth, nil
	case PeriodToday, PeriodYesterday, PeriodThisWeek, PeriodLast30Days, PeriodThisMonth, PeriodAllTime:
		return p, nil
	default:
		return "", core.ErrInvalidQuery
	}
}

// Range returns the civil window for p at now. all_time has no window.
func (p Period) Range(now time.Time) (calendar.Range, bool) {
	switch p {
	case PeriodToday:
		return calendar.DayRange(now, 0), true
	case PeriodYesterday:
		return calendar.DayRange(now, -1), true
	case PeriodThisWeek:
		return calendar.WeekRange(now), true
	case PeriodLast30Days:
		return calendar.LastDaysRange(now, 30), true
	case PeriodThisMonth:
		return calendar.MonthRange(now), true
	default:
		return calendar.Range{}, false
	}
}

// TransactionQuery is the user-facing part of a listing request.
type TransactionQuery struct {
	Period   Period
	Category string
	Search   string
}

// BuildTransactionFilter turns q into a filter over userID's transactions.
// categories is the user's expense category list; names are matched
// against it to find category ids.
func BuildTransactionFilter(userID string, q TransactionQuery, categories []core.Category, now time.Time) query.Filter {
	f := query.Where(query.Eq(query.FieldUserID, userID))

	if r, ok := q.Period.Range(now); ok {
		f = f.And(query.Between(query.FieldOccurredAt, r.Start, r.End))
	}

	if category := strings.TrimSpace(q.Category); category != "" && category != CategoryAll {
		var ids []string
		for _, c := range categories {
			if c.Name == category {
				ids = append(ids, c.ID)
			}
		}
		f = f.And(query.In(query.FieldCategoryID, ids...))
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		f = f.And(searchPredicate(search, categories))
	}

	return f
}

func searchPredicate(search string, categories []core.Category) query.Predicate {
	alts := []query.Predicate{query.ContainsFold(query.FieldNote, search)}

	pattern := query.Pattern(search)
	var ids []string
	for _, c := range categories {
		if pattern.MatchString(c.Name) {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) > 0 {
		alts = append(alts, query.In(query.FieldCategoryID, ids...))
	}

	if p, ok := datePredicate(datesearch.Parse(search)); ok {
		alts = append(alts, p)
	}

	return query.Or(alts...)
}

func datePredicate(r datesearch.Result) (query.Predicate, bool) {
	switch r.Mode {
	case datesearch.FullDate:
		return query.Between(query.FieldOccurredAt, r.Range.Start, r.Range.End), true
	case datesearch.DayMonth:
		return query.DayAndMonth(query.FieldOccurredAt, r.Day, r.Month), true
	case datesearch.DayOnly:
		return query.DayOfMonth(query.FieldOccurredAt, r.Day), true
	default:
		return query.Predicate{}, false
	}
}
