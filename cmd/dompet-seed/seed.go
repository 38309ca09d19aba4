package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/services"
	"dompet/internal/storage"
)

const (
	demoExpenses     = 36
	demoMinExisting  = 20
	demoMonthlyLimit = 5500000
)

type demoAccount struct {
	name, kind string
	balance    int64
}

var demoAccounts = []demoAccount{
	{"BCA Savings", "bank", 4500000},
	{"Cash Wallet", "cash", 1200000},
	{"E-Wallet", "ewallet", 2800000},
}

var demoCategories = []struct{ name, color string }{
	{"Food", "#0EA5E9"},
	{"Transport", "#22C55E"},
	{"Utilities", "#F59E0B"},
	{"Groceries", "#EF4444"},
	{"Other", "#8B5CF6"},
}

// seeder fills a user's dashboard with demo data. Running it again only
// adds expenses while the current month holds fewer than demoMinExisting.
type seeder struct {
	stores storage.Provider
	ledger *services.Ledger
	now    func() time.Time
}

type seedResult struct {
	AccountsOpened int
	Expenses       int
}

func (s *seeder) run(ctx context.Context, userID string) (seedResult, error) {
	var res seedResult

	store, err := s.stores.Get(ctx)
	if err != nil {
		return res, err
	}

	existing, err := store.ListAccounts(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("list accounts: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.Name] = true
	}
	for _, a := range demoAccounts {
		if known[a.name] {
			continue
		}
		err := s.ledger.AdjustBalance(ctx, userID, core.BalanceInput{
			AccountName: a.name,
			AccountType: a.kind,
			Amount:      decimal.NewFromInt(a.balance),
		})
		if err != nil {
			return res, fmt.Errorf("open %s: %w", a.name, err)
		}
		res.AccountsOpened++
	}

	// Colors only stick when the category is created here first.
	for _, c := range demoCategories {
		if _, err := store.ResolveCategory(ctx, userID, core.KindExpense, c.name, c.color); err != nil {
			return res, fmt.Errorf("resolve category %s: %w", c.name, err)
		}
	}

	if err := s.ledger.SetBudgetLimit(ctx, userID, core.BudgetLimitInput{LimitAmount: decimal.NewFromInt(demoMonthlyLimit)}); err != nil {
		return res, fmt.Errorf("set budget: %w", err)
	}

	now := s.now().UTC()
	month := calendar.MonthRange(now)
	count, err := store.CountTransactions(ctx, query.Where(
		query.Eq(query.FieldUserID, userID),
		query.Eq(query.FieldKind, string(core.KindExpense)),
		query.Between(query.FieldOccurredAt, month.Start, month.End),
	))
	if err != nil {
		return res, fmt.Errorf("count expenses: %w", err)
	}
	if count >= demoMinExisting {
		return res, nil
	}

	for i := 0; i < demoExpenses; i++ {
		occurredAt := now.Add(-time.Duration(i) * 24 * time.Hour)
		_, err := s.ledger.RecordExpense(ctx, userID, core.ExpenseInput{
			AccountName:  demoAccounts[i%len(demoAccounts)].name,
			CategoryName: demoCategories[i%len(demoCategories)].name,
			Amount:       decimal.NewFromInt(demoAmount(i)),
			Note:         fmt.Sprintf("Demo expense #%d", i+1),
			OccurredAt:   &occurredAt,
		})
		if err != nil {
			return res, fmt.Errorf("record demo expense %d: %w", i+1, err)
		}
		res.Expenses++
	}
	return res, nil
}

func demoAmount(i int) int64 {
	return 45000 + int64((i*17321)%210000)
}
