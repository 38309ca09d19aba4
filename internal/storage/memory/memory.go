// Package memory is an in-process Store used by tests and by
// DATA_BACKEND=memory. Data is lost on exit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	accounts      map[string]core.Account
	categories    map[string]core.Category
	transactions  map[string]core.Transaction
	budgets       map[string]core.Budget
	notifications map[string]core.Notification
}

func New() *Store {
	return &Store{
		now:           time.Now,
		accounts:      make(map[string]core.Account),
		categories:    make(map[string]core.Category),
		transactions:  make(map[string]core.Transaction),
		budgets:       make(map[string]core.Budget),
		notifications: make(map[string]core.Notification),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// txRecord adapts a transaction to query.Record.
type txRecord core.Transaction

func (r txRecord) StringField(f query.Field) string {
	switch f {
	case query.FieldUserID:
		return r.UserID
	case query.FieldKind:
		return string(r.Kind)
	case query.FieldAccountID:
		return r.AccountID
	case query.FieldCategoryID:
		return r.CategoryID
	case query.FieldNote:
		return r.Note
	default:
		return ""
	}
}

func (r txRecord) TimeField(query.Field) time.Time { return r.OccurredAt }

// Accounts

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return core.Account{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) ResolveAccount(_ context.Context, userID, name, accountType string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for id, a := range s.accounts {
		if a.UserID == userID && a.Name == name {
			a.Archived = false
			a.UpdatedAt = now
			s.accounts[id] = a
			return a, nil
		}
	}
	a := core.Account{
		ID:        core.NewID(),
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) IncrementBalance(_ context.Context, userID, accountID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	a.Balance += delta
	a.UpdatedAt = s.now().UTC()
	s.accounts[accountID] = a
	return nil
}

func (s *Store) SumBalances(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, a := range s.accounts {
		if a.UserID == userID && !a.Archived {
			total += a.Balance
		}
	}
	return total, nil
}

func (s *Store) ArchiveAccount(_ context.Context, userID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	a.Archived = true
	a.UpdatedAt = s.now().UTC()
	s.accounts[accountID] = a
	return nil
}

// Categories

func (s *Store) ListCategories(_ context.Context, userID string, kind core.Kind) ([]core.Category, error) {
	return s.categoriesWhere(func(c core.Category) bool { return c.UserID == userID && c.Kind == kind }), nil
}

func (s *Store) ListAllCategories(_ context.Context, userID string) ([]core.Category, error) {
	return s.categoriesWhere(func(c core.Category) bool { return c.UserID == userID }), nil
}

func (s *Store) categoriesWhere(keep func(core.Category) bool) []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) ResolveCategory(_ context.Context, userID string, kind core.Kind, name, color string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for id, c := range s.categories {
		if c.UserID == userID && c.Kind == kind && c.Name == name {
			c.UpdatedAt = now
			s.categories[id] = c
			return c, nil
		}
	}
	c := core.Category{
		ID:        core.NewID(),
		UserID:    userID,
		Name:      name,
		Kind:      kind,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.categories[c.ID] = c
	return c, nil
}

// Transactions

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return storage.ErrNotFound
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// matching returns the filtered transactions, newest first.
func (s *Store) matching(f query.Filter) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if f.Match(txRecord(t)) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) CountTransactions(_ context.Context, f query.Filter) (int, error) {
	return len(s.matching(f)), nil
}

func (s *Store) FindTransactions(_ context.Context, f query.Filter, page query.Page) ([]core.Transaction, error) {
	rows := s.matching(f)
	if page.Skip >= len(rows) {
		return nil, nil
	}
	rows = rows[page.Skip:]
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}
	return rows, nil
}

func (s *Store) SumAmount(_ context.Context, f query.Filter) (int64, error) {
	var total int64
	for _, t := range s.matching(f) {
		total += t.Amount
	}
	return total, nil
}

func (s *Store) MaxAmount(_ context.Context, f query.Filter) (int64, error) {
	var max int64
	for _, t := range s.matching(f) {
		if t.Amount > max {
			max = t.Amount
		}
	}
	return max, nil
}

func (s *Store) SumByCategory(_ context.Context, f query.Filter) ([]storage.CategoryTotal, error) {
	sums := make(map[string]int64)
	for _, t := range s.matching(f) {
		sums[t.CategoryID] += t.Amount
	}
	out := make([]storage.CategoryTotal, 0, len(sums))
	for id, amount := range sums {
		out = append(out, storage.CategoryTotal{CategoryID: id, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *Store) SumByDay(_ context.Context, f query.Filter) ([]storage.DayTotal, error) {
	sums := make(map[int64]int64)
	for _, t := range s.matching(f) {
		sums[calendar.CivilDay(t.OccurredAt)] += t.Amount
	}
	days := make([]int64, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	out := make([]storage.DayTotal, 0, len(days))
	for _, d := range days {
		out = append(out, storage.DayTotal{Day: calendar.CivilDayStart(d), Amount: sums[d]})
	}
	return out, nil
}

// Budgets

func budgetKey(b core.Budget) string {
	return strings.Join([]string{
		b.UserID, string(b.Scope), string(b.Period),
		b.StartDate.UTC().Format(time.RFC3339Nano), b.EndDate.UTC().Format(time.RFC3339Nano),
	}, "|")
}

func (s *Store) ActiveBudget(_ context.Context, userID string, window calendar.Range) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		best  core.Budget
		found bool
	)
	for _, b := range s.budgets {
		if b.UserID != userID || b.Scope != core.ScopeOverall || b.Period != core.PeriodMonthly {
			continue
		}
		if b.StartDate.After(window.End) || b.EndDate.Before(window.Start) {
			continue
		}
		if !found || b.EndDate.After(best.EndDate) {
			best, found = b, true
		}
	}
	if !found {
		return core.Budget{}, storage.ErrNotFound
	}
	best.AlertThresholds = append([]int(nil), best.AlertThresholds...)
	return best, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(b)
	b.AlertThresholds = append([]int(nil), b.AlertThresholds...)
	if existing, ok := s.budgets[key]; ok {
		existing.LimitAmount = b.LimitAmount
		existing.AlertThresholds = b.AlertThresholds
		existing.UpdatedAt = b.UpdatedAt
		s.budgets[key] = existing
		return nil
	}
	if b.ID == "" {
		b.ID = core.NewID()
	}
	s.budgets[key] = b
	return nil
}

// Notifications

func (s *Store) ListNotifications(_ context.Context, userID string, limit int) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertNotification(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.ID] = n
	return nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) (core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return core.Notification{}, storage.ErrNotFound
	}
	n.Unread = false
	n.UpdatedAt = s.now().UTC()
	s.notifications[id] = n
	return n, nil
}
