package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const (
	ScopeOverall  BudgetScope  = "overall"
	PeriodMonthly BudgetPeriod = "monthly"
)

const (
	DefaultAccountType   = "cash"
	DefaultCategoryColor = "#0EA5E9"
	FallbackAccountName  = "Cash Wallet"
	FallbackCategoryName = "Other"
	DefaultSenderName    = "Expense Tracker"
	DefaultWarningLevel  = 70
	DefaultCriticalLevel = 90
)

type (
	Kind         string
	BudgetScope  string
	BudgetPeriod string

	Account struct {
		ID        string
		UserID    string
		Name      string
		Type      string
		Balance   int64
		Archived  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Kind      Kind
		Color     string // empty when the category never got one
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID         string
		UserID     string
		AccountID  string
		CategoryID string // empty when uncategorised
		Kind       Kind
		Amount     int64 // always positive; Kind carries the sign
		Note       string
		OccurredAt time.Time
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Budget struct {
		ID              string
		UserID          string
		Scope           BudgetScope
		Period          BudgetPeriod
		StartDate       time.Time
		EndDate         time.Time
		LimitAmount     int64
		AlertThresholds []int
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	Notification struct {
		ID              string
		UserID          string
		Unread          bool
		SenderName      string
		SenderAvatarSrc string
		Body            string
		Date            time.Time
		To              string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}
)

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// SignedImpact is the balance effect of a transaction: expenses subtract,
// income adds.
func SignedImpact(kind Kind, amount int64) int64 {
	if kind == KindExpense {
		return -amount
	}
	return amount
}

// Impact is SignedImpact for t.
func (t Transaction) Impact() int64 {
	return SignedImpact(t.Kind, t.Amount)
}

// Thresholds returns the budget's warning and critical levels, sorted, with
// the defaults filling any missing value.
func (b Budget) Thresholds() (warning, critical int) {
	return SortedThresholds(b.AlertThresholds)
}

// NewID returns a fresh time-ordered identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidID reports whether id is well formed. It says nothing about whether
// the entity exists.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
