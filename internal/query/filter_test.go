package query

import (
	"testing"
	"time"
)

type record struct {
	fields map[Field]string
	at     time.Time
}

func (r record) StringField(f Field) string { return r.fields[f] }
func (r record) TimeField(Field) time.Time  { return r.at }

func TestFilterMatch(t *testing.T) {
	at := time.Date(2024, time.March, 15, 20, 30, 0, 0, time.UTC)
	r := record{
		fields: map[Field]string{FieldUserID: "u1", FieldKind: "expense", FieldNote: "Lunch (Team) $12", FieldCategoryID: "c1"},
		at:     at,
	}

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Where(), true},
		{"eq", Where(Eq(FieldUserID, "u1"), Eq(FieldKind, "expense")), true},
		{"eq mismatch", Where(Eq(FieldUserID, "u2")), false},
		{"in", Where(In(FieldCategoryID, "c0", "c1")), true},
		{"empty in", Where(In(FieldCategoryID)), false},
		{"between inclusive end", Where(Between(FieldOccurredAt, at.Add(-time.Hour), at)), true},
		{"between before", Where(Between(FieldOccurredAt, at.Add(time.Millisecond), at.Add(time.Hour))), false},
		{"contains is literal", Where(ContainsFold(FieldNote, "(team) $1")), true},
		{"contains no wildcard", Where(ContainsFold(FieldNote, "l.nch")), false},
		{"day of month is utc", Where(DayOfMonth(FieldOccurredAt, 15)), true},
		{"day and month", Where(DayAndMonth(FieldOccurredAt, 15, time.March)), true},
		{"day and month wrong month", Where(DayAndMonth(FieldOccurredAt, 15, time.April)), false},
		{"or", Where(Or(Eq(FieldNote, "x"), In(FieldCategoryID, "c1"))), true},
		{"empty or", Where(Or()), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Match(r); got != tc.want {
				t.Fatalf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAndDoesNotAlias(t *testing.T) {
	base := Where(Eq(FieldUserID, "u1"))
	a := base.And(Eq(FieldKind, "expense"))
	b := base.And(Eq(FieldKind, "income"))

	if len(base.Predicates()) != 1 {
		t.Fatalf("base grew to %d predicates", len(base.Predicates()))
	}
	if a.Predicates()[1].Value != "expense" || b.Predicates()[1].Value != "income" {
		t.Fatalf("derived filters share storage: %+v %+v", a.Predicates(), b.Predicates())
	}
}

func TestPatternEscapes(t *testing.T) {
	re := Pattern("a+b (c)")
	if !re.MatchString("xx A+B (C) yy") {
		t.Fatal("expected literal match")
	}
	if re.MatchString("aab c") {
		t.Fatal("metacharacters were interpreted")
	}
}
