// Package core holds the dashboard's entities, input validation and the
// pure arithmetic shared by the services: amounts, budget status and
// period-over-period variation.
package core

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// WholeAmount converts a decoded amount into the integer unit the ledger
// stores. Zero, negative and fractional values are rejected.
func WholeAmount(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() || !d.IsInteger() || d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}

// RoundHalfUp rounds x to the nearest integer with halves going toward
// positive infinity, so -2.5 becomes -2.
func RoundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// Variation is the percentage change from previous to current. With no
// previous value the change is 0 when current is also zero and 100
// otherwise.
func Variation(current, previous int64) int64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return RoundHalfUp(float64(current-previous) / float64(previous) * 100)
}

// BudgetProgress is spent as a percentage of limit, capped at 100.
func BudgetProgress(spent, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	p := RoundHalfUp(float64(spent) / float64(limit) * 100)
	if p > 100 {
		return 100
	}
	return p
}

// BudgetRemaining is what is left of limit, never negative.
func BudgetRemaining(limit, spent int64) int64 {
	if r := limit - spent; r > 0 {
		return r
	}
	return 0
}

// SortedThresholds returns the lowest two alert levels in ascending order.
// Missing values fall back to the defaults.
func SortedThresholds(levels []int) (warning, critical int) {
	sorted := append([]int(nil), levels...)
	sort.Ints(sorted)
	warning, critical = DefaultWarningLevel, DefaultCriticalLevel
	if len(sorted) > 0 {
		warning = sorted[0]
	}
	if len(sorted) > 1 {
		critical = sorted[1]
	}
	return warning, critical
}

type BudgetStatus string

const (
	BudgetHealthy  BudgetStatus = "healthy"
	BudgetWarning  BudgetStatus = "warning"
	BudgetCritical BudgetStatus = "critical"
)

// StatusFor classifies progress against the alert levels.
func StatusFor(progress int64, warning, critical int) BudgetStatus {
	switch {
	case progress >= int64(critical):
		return BudgetCritical
	case progress >= int64(warning):
		return BudgetWarning
	default:
		return BudgetHealthy
	}
}
