// Package query is a store-agnostic description of transaction filters.
//
// A Filter is a conjunction of predicates. Store backends either compile it
// to their own query language or evaluate it in process through Match.
package query

import (
	"regexp"
	"strings"
	"time"
)

// Field names a filterable transaction attribute.
type Field string

const (
	FieldUserID     Field = "user_id"
	FieldKind       Field = "kind"
	FieldAccountID  Field = "account_id"
	FieldCategoryID Field = "category_id"
	FieldNote       Field = "note"
	FieldOccurredAt Field = "occurred_at"
)

// Op is the comparison a Predicate performs.
type Op int

const (
	OpEq Op = iota
	OpIn
	OpBetween
	OpContainsFold
	OpDayOfMonth
	OpDayAndMonth
	OpOr
)

// Predicate is a single condition. Which fields are meaningful depends on Op.
type Predicate struct {
	Op     Op
	Field  Field
	Value  string
	Values []string
	Start  time.Time
	End    time.Time
	Day    int
	Month  time.Month
	Any    []Predicate
}

// Eq matches records whose field equals v.
func Eq(f Field, v string) Predicate {
	return Predicate{Op: OpEq, Field: f, Value: v}
}

// In matches records whose field is one of vs. An empty set matches nothing.
func In(f Field, vs ...string) Predicate {
	return Predicate{Op: OpIn, Field: f, Values: append([]string(nil), vs...)}
}

// Between matches records whose time field lies in [start, end].
func Between(f Field, start, end time.Time) Predicate {
	return Predicate{Op: OpBetween, Field: f, Start: start, End: end}
}

// ContainsFold matches records whose field contains s, ignoring case. s is
// a literal substring; it is never interpreted as a pattern.
func ContainsFold(f Field, s string) Predicate {
	return Predicate{Op: OpContainsFold, Field: f, Value: s}
}

// Fold is the case folding ContainsFold applies to both sides. Backends
// that cannot fold Unicode themselves store Fold of the field.
func Fold(s string) string {
	return strings.ToLower(s)
}

// DayOfMonth matches a UTC day of month in any month and year.
func DayOfMonth(f Field, day int) Predicate {
	return Predicate{Op: OpDayOfMonth, Field: f, Day: day}
}

// DayAndMonth matches a UTC day and month in any year.
func DayAndMonth(f Field, day int, month time.Month) Predicate {
	return Predicate{Op: OpDayAndMonth, Field: f, Day: day, Month: month}
}

// Or matches when any of ps matches. An empty Or matches nothing.
func Or(ps ...Predicate) Predicate {
	return Predicate{Op: OpOr, Any: append([]Predicate(nil), ps...)}
}

// Filter is an immutable conjunction of predicates.
type Filter struct {
	preds []Predicate
}

// Where starts a filter from ps.
func Where(ps ...Predicate) Filter {
	return Filter{preds: append([]Predicate(nil), ps...)}
}

// And returns a copy of f extended with ps. f itself is not modified.
func (f Filter) And(ps ...Predicate) Filter {
	out := make([]Predicate, 0, len(f.preds)+len(ps))
	out = append(out, f.preds...)
	out = append(out, ps...)
	return Filter{preds: out}
}

// Predicates returns the filter's predicates in insertion order.
func (f Filter) Predicates() []Predicate {
	return append([]Predicate(nil), f.preds...)
}

// Record exposes the fields a Filter can test.
type Record interface {
	StringField(Field) string
	TimeField(Field) time.Time
}

// Match evaluates the filter against r.
func (f Filter) Match(r Record) bool {
	for _, p := range f.preds {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

// Match evaluates a single predicate against r.
func (p Predicate) Match(r Record) bool {
	switch p.Op {
	case OpEq:
		return r.StringField(p.Field) == p.Value
	case OpIn:
		v := r.StringField(p.Field)
		for _, candidate := range p.Values {
			if candidate == v {
				return true
			}
		}
		return false
	case OpBetween:
		t := r.TimeField(p.Field)
		return !t.Before(p.Start) && !t.After(p.End)
	case OpContainsFold:
		return strings.Contains(Fold(r.StringField(p.Field)), Fold(p.Value))
	case OpDayOfMonth:
		return r.TimeField(p.Field).UTC().Day() == p.Day
	case OpDayAndMonth:
		t := r.TimeField(p.Field).UTC()
		return t.Day() == p.Day && t.Month() == p.Month
	case OpOr:
		for _, sub := range p.Any {
			if sub.Match(r) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Pattern compiles s into a case-insensitive regexp that matches s
// literally anywhere in the input.
func Pattern(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}

// Page selects a window of results.
type Page struct {
	Skip  int
	Limit int
}
