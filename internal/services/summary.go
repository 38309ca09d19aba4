package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/cache"
	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage"
)

// Granularity is the chart bucket size of the home summary.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

func (g Granularity) unit() calendar.Unit {
	switch g {
	case Weekly:
		return calendar.Week
	case Monthly:
		return calendar.Month
	default:
		return calendar.Day
	}
}

// ParseGranularity never fails: anything unrecognized is daily.
func ParseGranularity(s string) Granularity {
	switch g := Granularity(strings.TrimSpace(s)); g {
	case Weekly, Monthly:
		return g
	default:
		return Daily
	}
}

const (
	defaultSummaryWindow = 14 * 24 * time.Hour
	latestLimit          = 5
)

// CategoryPalette colors categories that never got a color of their own,
// indexed by row position.
var CategoryPalette = []string{"#0EA5E9", "#22C55E", "#F59E0B", "#EF4444", "#8B5CF6", "#14B8A6"}

// SummaryRequest carries the raw home query. Unparseable dates fall back
// to the last fourteen days ending now.
type SummaryRequest struct {
	UserID string
	Period string
	Start  string
	End    string
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SummaryService builds the home dashboard payload.
type SummaryService struct {
	stores storage.Provider
	cache  cache.Cache[core.HomeSummary]
	now    func() time.Time
}

func NewSummaryService(stores storage.Provider) *SummaryService {
	return &SummaryService{
		stores: stores,
		now:    time.Now,
	}
}

// WithCache enables caching of summaries requested with an explicit range.
func (s *SummaryService) WithCache(c cache.Cache[core.HomeSummary]) *SummaryService {
	s.cache = c
	return s
}

// InvalidateUser drops every cached summary of userID.
func (s *SummaryService) InvalidateUser(userID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(userID + "|")
	}
}

// BuildHomeSummary aggregates userID's dashboard for the requested range.
func (s *SummaryService) BuildHomeSummary(ctx context.Context, req SummaryRequest) (core.HomeSummary, error) {
	now := s.now().UTC()
	period := ParseGranularity(req.Period)

	start, explicitStart := parseInstant(req.Start)
	end, explicitEnd := parseInstant(req.End)
	if !explicitEnd {
		end = now
	}
	if !explicitStart {
		start = now.Add(-defaultSummaryWindow)
	}
	if start.After(end) {
		return core.HomeSummary{}, core.Invalid("Invalid date range")
	}

	key := ""
	if s.cache != nil && explicitStart && explicitEnd {
		key = fmt.Sprintf("%s|%s|%d|%d", req.UserID, period, start.UnixMilli(), end.UnixMilli())
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	store, err := s.stores.Get(ctx)
	if err != nil {
		return core.HomeSummary{}, err
	}

	summary, err := s.build(ctx, store, req.UserID, period, calendar.Range{Start: start, End: end})
	if err != nil {
		return core.HomeSummary{}, err
	}

	if key != "" {
		s.cache.Set(key, summary)
	}
	return summary, nil
}

func expensesIn(userID string, r calendar.Range) query.Filter {
	return query.Where(
		query.Eq(query.FieldUserID, userID),
		query.Eq(query.FieldKind, string(core.KindExpense)),
		query.Between(query.FieldOccurredAt, r.Start, r.End),
	)
}

func (s *SummaryService) build(ctx context.Context, store storage.Store, userID string, period Granularity, window calendar.Range) (core.HomeSummary, error) {
	duration := window.End.Sub(window.Start)
	if duration < time.Millisecond {
		duration = time.Millisecond
	}
	previous := calendar.Range{Start: window.Start.Add(-duration), End: window.End.Add(-duration)}
	today := calendar.DayRange(window.End, 0)
	yesterday := calendar.DayRange(window.End.Add(-24*time.Hour), 0)
	month := calendar.MonthRange(window.End)

	var (
		totalBalance             int64
		accounts                 []core.Account
		current, prior           int64
		largestToday, largestYst int64
		days                     []storage.DayTotal
		byCategory               []storage.CategoryTotal
		categories               []core.Category
		budget                   core.Budget
		hasBudget                bool
		monthSpent               int64
		latest                   []core.Transaction
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totalBalance, err = store.SumBalances(ctx, userID)
		return wrap("sum balances", err)
	})
	g.Go(func() (err error) {
		accounts, err = store.ListAccounts(ctx, userID)
		return wrap("list accounts", err)
	})
	g.Go(func() (err error) {
		current, err = store.SumAmount(ctx, expensesIn(userID, window))
		return wrap("sum current spending", err)
	})
	g.Go(func() (err error) {
		prior, err = store.SumAmount(ctx, expensesIn(userID, previous))
		return wrap("sum previous spending", err)
	})
	g.Go(func() (err error) {
		largestToday, err = store.MaxAmount(ctx, expensesIn(userID, today))
		return wrap("largest expense today", err)
	})
	g.Go(func() (err error) {
		largestYst, err = store.MaxAmount(ctx, expensesIn(userID, yesterday))
		return wrap("largest expense yesterday", err)
	})
	g.Go(func() (err error) {
		days, err = store.SumByDay(ctx, expensesIn(userID, window))
		return wrap("sum by day", err)
	})
	g.Go(func() (err error) {
		byCategory, err = store.SumByCategory(ctx, expensesIn(userID, window))
		return wrap("sum by category", err)
	})
	g.Go(func() (err error) {
		categories, err = store.ListCategories(ctx, userID, core.KindExpense)
		return wrap("list categories", err)
	})
	g.Go(func() error {
		b, err := store.ActiveBudget(ctx, userID, month)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil
		case err != nil:
			return wrap("active budget", err)
		}
		budget, hasBudget = b, true
		return nil
	})
	g.Go(func() (err error) {
		monthSpent, err = store.SumAmount(ctx, expensesIn(userID, month))
		return wrap("sum monthly spending", err)
	})
	g.Go(func() (err error) {
		latest, err = store.FindTransactions(ctx, expensesIn(userID, window), query.Page{Limit: latestLimit})
		return wrap("latest transactions", err)
	})
	if err := g.Wait(); err != nil {
		return core.HomeSummary{}, err
	}

	meta := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		meta[c.ID] = c
	}

	return core.HomeSummary{
		UserID: userID,
		Range:  core.RangeView{Start: core.ISOTime(window.Start), End: core.ISOTime(window.End)},
		Period: string(period),
		Summary: core.SummaryTotals{
			TotalBalance:        totalBalance,
			CurrentSpending:     current,
			LargestExpenseToday: largestToday,
		},
		Stats: []core.Stat{
			{Title: "Total Balance", Icon: "i-lucide-wallet", Value: totalBalance, Variation: 0},
			{Title: "Current Spending", Icon: "i-lucide-shopping-cart", Value: current, Variation: core.Variation(current, prior)},
			{Title: "Largest Expense (Today)", Icon: "i-lucide-circle-dollar-sign", Value: largestToday, Variation: core.Variation(largestToday, largestYst)},
		},
		Balance:            balanceView(totalBalance, accounts),
		Budget:             budgetView(budget, hasBudget, monthSpent),
		Chart:              chartSeries(days, period.unit()),
		Categories:         categorySlices(byCategory, meta),
		LatestTransactions: expenseRows(latest, meta),
	}, nil
}

func wrap(step string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}

func balanceView(total int64, accounts []core.Account) core.BalanceView {
	out := make([]core.AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		if a.Archived {
			continue
		}
		out = append(out, core.AccountBalance{ID: a.ID, Name: a.Name, Type: a.Type, Balance: a.Balance})
	}
	return core.BalanceView{Total: total, Accounts: out}
}

func budgetView(b core.Budget, ok bool, spent int64) core.BudgetView {
	var (
		limit  int64
		levels []int
	)
	if ok {
		limit = b.LimitAmount
		levels = b.AlertThresholds
	}
	warning, critical := core.SortedThresholds(levels)
	progress := core.BudgetProgress(spent, limit)
	return core.BudgetView{
		Limit:      limit,
		Spent:      spent,
		Remaining:  core.BudgetRemaining(limit, spent),
		Progress:   progress,
		Status:     core.StatusFor(progress, warning, critical),
		Thresholds: core.ThresholdView{Warning: warning, Critical: critical},
	}
}

// chartSeries rolls ascending per-day totals into buckets of unit.
func chartSeries(days []storage.DayTotal, unit calendar.Unit) []core.ChartPoint {
	out := make([]core.ChartPoint, 0, len(days))
	var last time.Time
	for _, d := range days {
		bucket := calendar.Truncate(d.Day, unit)
		if len(out) > 0 && bucket.Equal(last) {
			out[len(out)-1].Amount += d.Amount
			continue
		}
		out = append(out, core.ChartPoint{Date: core.ISOTime(bucket), Amount: d.Amount})
		last = bucket
	}
	return out
}

func categorySlices(totals []storage.CategoryTotal, meta map[string]core.Category) []core.CategorySlice {
	out := make([]core.CategorySlice, 0, len(totals))
	for i, t := range totals {
		c, ok := meta[t.CategoryID]
		label, color := c.Name, c.Color
		if !ok || label == "" {
			label = core.FallbackCategoryName
		}
		if color == "" {
			color = CategoryPalette[i%len(CategoryPalette)]
		}
		out = append(out, core.CategorySlice{Label: label, Amount: t.Amount, Color: color})
	}
	return out
}

func expenseRows(rows []core.Transaction, meta map[string]core.Category) []core.ExpenseRow {
	out := make([]core.ExpenseRow, 0, len(rows))
	for _, t := range rows {
		expenseType := meta[t.CategoryID].Name
		if expenseType == "" {
			expenseType = core.FallbackCategoryName
		}
		out = append(out, core.ExpenseRow{
			ID:          t.ID,
			Date:        core.ISOTime(t.OccurredAt),
			ExpenseType: expenseType,
			Amount:      t.Amount,
			Description: describe(t.Note),
		})
	}
	return out
}
