// Package storage defines the persistence contract the services depend on
// and a lazily connected handle shared by every request.
package storage

import (
	"context"
	"errors"
	"time"

	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
)

// ErrNotFound is returned by lookups and writes that address a missing row.
var ErrNotFound = errors.New("not found")

type (
	// CategoryTotal is a per-category expense sum.
	CategoryTotal struct {
		CategoryID string
		Amount     int64
	}

	// DayTotal is the sum of one civil day. Day is the day's starting
	// instant.
	DayTotal struct {
		Day    time.Time
		Amount int64
	}
)

// AccountStore resolves and updates accounts. ResolveAccount is an upsert
// keyed by (user, name): a new account gets accountType and a zero balance,
// and any resolved account is un-archived.
type AccountStore interface {
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	GetAccount(ctx context.Context, userID, id string) (core.Account, error)
	ResolveAccount(ctx context.Context, userID, name, accountType string) (core.Account, error)
	IncrementBalance(ctx context.Context, userID, accountID string, delta int64) error
	SumBalances(ctx context.Context, userID string) (int64, error)
	// ArchiveAccount hides an account from SumBalances until it is
	// resolved by name again.
	ArchiveAccount(ctx context.Context, userID, accountID string) error
}

// CategoryStore resolves categories. ResolveCategory is an upsert keyed by
// (user, kind, name); color is only applied on insert.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error)
	ListAllCategories(ctx context.Context, userID string) ([]core.Category, error)
	ResolveCategory(ctx context.Context, userID string, kind core.Kind, name, color string) (core.Category, error)
}

// TransactionStore reads and writes transactions. Find returns rows ordered
// by occurrence then id, both descending.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	CountTransactions(ctx context.Context, f query.Filter) (int, error)
	FindTransactions(ctx context.Context, f query.Filter, page query.Page) ([]core.Transaction, error)
	SumAmount(ctx context.Context, f query.Filter) (int64, error)
	MaxAmount(ctx context.Context, f query.Filter) (int64, error)
	SumByCategory(ctx context.Context, f query.Filter) ([]CategoryTotal, error)
	SumByDay(ctx context.Context, f query.Filter) ([]DayTotal, error)
}

// BudgetStore reads and writes budgets.
type BudgetStore interface {
	// ActiveBudget returns the overall monthly budget overlapping window
	// with the latest end date.
	ActiveBudget(ctx context.Context, userID string, window calendar.Range) (core.Budget, error)
	// UpsertBudget is keyed by (user, scope, period, start, end). An
	// existing budget only gets its limit and thresholds replaced.
	UpsertBudget(ctx context.Context, b core.Budget) error
}

// NotificationStore reads and writes notifications. Lists are ordered by
// date then id, both descending.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error)
	InsertNotification(ctx context.Context, n core.Notification) error
	MarkNotificationRead(ctx context.Context, userID, id string) (core.Notification, error)
}

// Store is everything a backend provides.
type Store interface {
	AccountStore
	CategoryStore
	TransactionStore
	BudgetStore
	NotificationStore

	Ping(ctx context.Context) error
	Close() error
}

// Provider hands out the store for a request, connecting on first use.
type Provider interface {
	Get(ctx context.Context) (Store, error)
}

type staticProvider struct{ s Store }

func (p staticProvider) Get(context.Context) (Store, error) { return p.s, nil }

// Static wraps an already open store.
func Static(s Store) Provider {
	return staticProvider{s: s}
}
