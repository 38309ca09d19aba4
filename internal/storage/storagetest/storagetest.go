// Package storagetest is a conformance suite every storage.Store backend
// must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

const user = "demo-user"

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"ResolveAccountIsIdempotent", testResolveAccount},
		{"IncrementBalance", testIncrementBalance},
		{"ArchivedAccountsExcludedFromTotal", testArchiveAccount},
		{"ResolveCategoryKeepsColor", testResolveCategory},
		{"FilterPredicates", testFilterPredicates},
		{"Pagination", testPagination},
		{"Aggregates", testAggregates},
		{"TransactionLifecycle", testTransactionLifecycle},
		{"Budgets", testBudgets},
		{"Notifications", testNotifications},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func testArchiveAccount(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a, _ := s.ResolveAccount(ctx, user, "Old Wallet", "cash")
	b, _ := s.ResolveAccount(ctx, user, "Bank", "bank")
	_ = s.IncrementBalance(ctx, user, a.ID, 700)
	_ = s.IncrementBalance(ctx, user, b.ID, 300)

	if err := s.ArchiveAccount(ctx, "other", a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("archive as another user: err = %v, want ErrNotFound", err)
	}
	if err := s.ArchiveAccount(ctx, user, a.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if total, err := s.SumBalances(ctx, user); err != nil || total != 300 {
		t.Fatalf("total = %d, %v; want 300", total, err)
	}

	// Resolving by name brings the account back.
	if _, err := s.ResolveAccount(ctx, user, "Old Wallet", "cash"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if total, _ := s.SumBalances(ctx, user); total != 1000 {
		t.Fatalf("total after unarchive = %d, want 1000", total)
	}
}

func testResolveAccount(t *testing.T, s storage.Store) {
	ctx := context.Background()
	first, err := s.ResolveAccount(ctx, user, "BCA Savings", "bank")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := s.ResolveAccount(ctx, user, "BCA Savings", "cash")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if second.Type != "bank" || second.Balance != 0 || second.Archived {
		t.Fatalf("unexpected account: %+v", second)
	}
	other, err := s.ResolveAccount(ctx, "someone-else", "BCA Savings", "bank")
	if err != nil {
		t.Fatalf("resolve other user: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("accounts shared across users")
	}
}

func testIncrementBalance(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a, _ := s.ResolveAccount(ctx, user, "Wallet", "cash")
	b, _ := s.ResolveAccount(ctx, user, "Bank", "bank")
	if err := s.IncrementBalance(ctx, user, a.ID, 5000); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := s.IncrementBalance(ctx, user, a.ID, -1500); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := s.IncrementBalance(ctx, user, b.ID, 100); err != nil {
		t.Fatalf("increment b: %v", err)
	}
	got, err := s.GetAccount(ctx, user, a.ID)
	if err != nil || got.Balance != 3500 {
		t.Fatalf("balance = %d, %v; want 3500", got.Balance, err)
	}
	total, err := s.SumBalances(ctx, user)
	if err != nil || total != 3600 {
		t.Fatalf("total = %d, %v; want 3600", total, err)
	}
	if err := s.IncrementBalance(ctx, user, core.NewID(), 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing account err = %v", err)
	}
	accounts, err := s.ListAccounts(ctx, user)
	if err != nil || len(accounts) != 2 {
		t.Fatalf("accounts = %d, %v", len(accounts), err)
	}
}

func testResolveCategory(t *testing.T, s storage.Store) {
	ctx := context.Background()
	c, err := s.ResolveCategory(ctx, user, core.KindExpense, "Food", "#0EA5E9")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	again, _ := s.ResolveCategory(ctx, user, core.KindExpense, "Food", "#FFFFFF")
	if again.ID != c.ID || again.Color != "#0EA5E9" {
		t.Fatalf("upsert changed category: %+v", again)
	}
	income, _ := s.ResolveCategory(ctx, user, core.KindIncome, "Food", "")
	if income.ID == c.ID {
		t.Fatal("kinds share a category")
	}
	expense, _ := s.ListCategories(ctx, user, core.KindExpense)
	all, _ := s.ListAllCategories(ctx, user)
	if len(expense) != 1 || len(all) != 2 {
		t.Fatalf("expense=%d all=%d", len(expense), len(all))
	}
}

func insert(t *testing.T, s storage.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	if tx.ID == "" {
		tx.ID = core.NewID()
	}
	if tx.UserID == "" {
		tx.UserID = user
	}
	if tx.Kind == "" {
		tx.Kind = core.KindExpense
	}
	tx.CreatedAt = tx.OccurredAt
	tx.UpdatedAt = tx.OccurredAt
	if err := s.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return tx
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func testFilterPredicates(t *testing.T, s storage.Store) {
	ctx := context.Background()
	lunch := insert(t, s, core.Transaction{Amount: 100, Note: "Lunch 100% spicy", CategoryID: "c1", OccurredAt: at("2024-03-15T05:00:00Z")})
	_ = insert(t, s, core.Transaction{Amount: 200, Note: "Lunch 100 mild", CategoryID: "c2", OccurredAt: at("2024-04-15T05:00:00Z")})
	_ = insert(t, s, core.Transaction{Amount: 300, Note: "taxi", CategoryID: "c1", OccurredAt: at("2024-03-16T20:00:00Z")})
	_ = insert(t, s, core.Transaction{UserID: "other", Amount: 400, Note: "lunch", OccurredAt: at("2024-03-15T05:00:00Z")})
	_ = insert(t, s, core.Transaction{Amount: 500, Note: "Kopi ÉCLAIR", CategoryID: "c3", OccurredAt: at("2024-05-01T05:00:00Z")})

	base := query.Where(query.Eq(query.FieldUserID, user))
	cases := []struct {
		name string
		f    query.Filter
		want int
	}{
		{"user scoped", base, 4},
		{"percent is literal", base.And(query.ContainsFold(query.FieldNote, "100%")), 1},
		{"underscore is literal", base.And(query.ContainsFold(query.FieldNote, "lunch_")), 0},
		{"case folded", base.And(query.ContainsFold(query.FieldNote, "LUNCH")), 2},
		{"case folded beyond ascii", base.And(query.ContainsFold(query.FieldNote, "éclair")), 1},
		{"upper search beyond ascii", base.And(query.ContainsFold(query.FieldNote, "KOPI ÉCL")), 1},
		{"category in", base.And(query.In(query.FieldCategoryID, "c1")), 2},
		{"empty in", base.And(query.In(query.FieldCategoryID)), 0},
		{"day of month", base.And(query.DayOfMonth(query.FieldOccurredAt, 15)), 2},
		{"day of month is utc", base.And(query.DayOfMonth(query.FieldOccurredAt, 16)), 1},
		{"day and month", base.And(query.DayAndMonth(query.FieldOccurredAt, 15, time.March)), 1},
		{"range", base.And(query.Between(query.FieldOccurredAt, at("2024-03-01T00:00:00Z"), at("2024-03-31T00:00:00Z"))), 2},
		{"or", base.And(query.Or(query.ContainsFold(query.FieldNote, "taxi"), query.In(query.FieldCategoryID, "c2"))), 2},
		{"empty or", base.And(query.Or()), 0},
	}
	for _, tc := range cases {
		n, err := s.CountTransactions(ctx, tc.f)
		if err != nil {
			t.Fatalf("%s: count: %v", tc.name, err)
		}
		if n != tc.want {
			t.Fatalf("%s: count = %d, want %d", tc.name, n, tc.want)
		}
	}

	found, err := s.FindTransactions(ctx, base.And(query.ContainsFold(query.FieldNote, "spicy")), query.Page{Limit: 10})
	if err != nil || len(found) != 1 || found[0].ID != lunch.ID {
		t.Fatalf("find = %v, %v", ids(found), err)
	}
	if found[0].Note != lunch.Note || found[0].Amount != 100 || !found[0].OccurredAt.Equal(lunch.OccurredAt) {
		t.Fatalf("round trip mismatch: %+v", found[0])
	}

	// Folding follows a note rewritten by an update.
	lunch.Note = "ÇAY TARIK"
	if err := s.UpdateTransaction(ctx, lunch); err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, c := range []struct {
		search string
		want   int
	}{
		{"çay", 1},
		{"spicy", 0},
	} {
		n, err := s.CountTransactions(ctx, base.And(query.ContainsFold(query.FieldNote, c.search)))
		if err != nil || n != c.want {
			t.Fatalf("after update, search %q: count = %d, %v, want %d", c.search, n, err, c.want)
		}
	}
}

func testPagination(t *testing.T, s storage.Store) {
	ctx := context.Background()
	same := at("2024-03-10T10:00:00Z")
	var want []string
	// Two share an instant so the id tie-break is exercised.
	older := insert(t, s, core.Transaction{Amount: 1, OccurredAt: at("2024-03-09T10:00:00Z")})
	a := insert(t, s, core.Transaction{Amount: 1, OccurredAt: same})
	b := insert(t, s, core.Transaction{Amount: 1, OccurredAt: same})
	newest := insert(t, s, core.Transaction{Amount: 1, OccurredAt: at("2024-03-11T10:00:00Z")})
	hi, lo := a.ID, b.ID
	if lo > hi {
		hi, lo = lo, hi
	}
	want = []string{newest.ID, hi, lo, older.ID}

	f := query.Where(query.Eq(query.FieldUserID, user))
	all, err := s.FindTransactions(ctx, f, query.Page{Limit: 10})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := ids(all); len(got) != 4 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] || got[3] != want[3] {
		t.Fatalf("order = %v, want %v", got, want)
	}
	page, err := s.FindTransactions(ctx, f, query.Page{Skip: 2, Limit: 2})
	if err != nil || len(page) != 2 || page[0].ID != want[2] {
		t.Fatalf("page = %v, %v", ids(page), err)
	}
	empty, err := s.FindTransactions(ctx, f, query.Page{Skip: 10, Limit: 2})
	if err != nil || len(empty) != 0 {
		t.Fatalf("past end = %v, %v", ids(empty), err)
	}
}

func testAggregates(t *testing.T, s storage.Store) {
	ctx := context.Background()
	insert(t, s, core.Transaction{Amount: 100, CategoryID: "food", OccurredAt: at("2024-03-14T18:00:00Z")}) // civil 15th
	insert(t, s, core.Transaction{Amount: 250, CategoryID: "food", OccurredAt: at("2024-03-15T10:00:00Z")}) // civil 15th
	insert(t, s, core.Transaction{Amount: 500, CategoryID: "rent", OccurredAt: at("2024-03-16T10:00:00Z")})
	insert(t, s, core.Transaction{Amount: 50, OccurredAt: at("2024-03-16T11:00:00Z")})
	insert(t, s, core.Transaction{Amount: 9999, Kind: core.KindIncome, OccurredAt: at("2024-03-16T11:00:00Z")})

	f := query.Where(query.Eq(query.FieldUserID, user), query.Eq(query.FieldKind, string(core.KindExpense)))
	sum, err := s.SumAmount(ctx, f)
	if err != nil || sum != 900 {
		t.Fatalf("sum = %d, %v", sum, err)
	}
	max, err := s.MaxAmount(ctx, f)
	if err != nil || max != 500 {
		t.Fatalf("max = %d, %v", max, err)
	}
	none, err := s.SumAmount(ctx, f.And(query.In(query.FieldCategoryID)))
	if err != nil || none != 0 {
		t.Fatalf("empty sum = %d, %v", none, err)
	}

	byCat, err := s.SumByCategory(ctx, f)
	if err != nil || len(byCat) != 3 {
		t.Fatalf("by category = %+v, %v", byCat, err)
	}
	if byCat[0].CategoryID != "rent" || byCat[1].CategoryID != "food" || byCat[1].Amount != 350 || byCat[2].CategoryID != "" {
		t.Fatalf("by category order = %+v", byCat)
	}

	byDay, err := s.SumByDay(ctx, f)
	if err != nil || len(byDay) != 2 {
		t.Fatalf("by day = %+v, %v", byDay, err)
	}
	if !byDay[0].Day.Equal(at("2024-03-14T17:00:00Z")) || byDay[0].Amount != 350 {
		t.Fatalf("first day = %+v", byDay[0])
	}
	if !byDay[1].Day.Equal(calendar.DayRange(at("2024-03-16T10:00:00Z"), 0).Start) || byDay[1].Amount != 550 {
		t.Fatalf("second day = %+v", byDay[1])
	}
}

func testTransactionLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	tx := insert(t, s, core.Transaction{Amount: 10, Note: "x", OccurredAt: at("2024-03-01T00:00:00Z")})

	tx.Amount = 20
	tx.Note = "y"
	tx.OccurredAt = at("2024-03-02T00:00:00Z")
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetTransaction(ctx, user, tx.ID)
	if err != nil || got.Amount != 20 || got.Note != "y" || !got.OccurredAt.Equal(tx.OccurredAt) {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := s.GetTransaction(ctx, "other", tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-user get err = %v", err)
	}
	if err := s.DeleteTransaction(ctx, user, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, user, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete err = %v", err)
	}
	if err := s.DeleteTransaction(ctx, user, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func testBudgets(t *testing.T, s storage.Store) {
	ctx := context.Background()
	march := calendar.MonthRange(at("2024-03-10T00:00:00Z"))
	if _, err := s.ActiveBudget(ctx, user, march); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("empty store err = %v", err)
	}

	b := core.Budget{
		UserID: user, Scope: core.ScopeOverall, Period: core.PeriodMonthly,
		StartDate: march.Start, EndDate: march.End,
		LimitAmount: 1000, AlertThresholds: []int{70, 90},
		CreatedAt: march.Start, UpdatedAt: march.Start,
	}
	if err := s.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	b.LimitAmount = 2000
	b.AlertThresholds = []int{50, 80}
	if err := s.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.ActiveBudget(ctx, user, march)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if got.LimitAmount != 2000 || len(got.AlertThresholds) != 2 || got.AlertThresholds[0] != 50 {
		t.Fatalf("budget = %+v", got)
	}
	if !got.StartDate.Equal(march.Start) || !got.EndDate.Equal(march.End) {
		t.Fatalf("budget window = %s..%s", got.StartDate, got.EndDate)
	}

	april := calendar.MonthRange(at("2024-04-10T00:00:00Z"))
	if _, err := s.ActiveBudget(ctx, user, april); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("april err = %v", err)
	}
}

func testNotifications(t *testing.T, s storage.Store) {
	ctx := context.Background()
	older := core.Notification{ID: core.NewID(), UserID: user, Unread: true, Body: "older", Date: at("2024-03-01T00:00:00Z")}
	newer := core.Notification{ID: core.NewID(), UserID: user, Unread: true, Body: "newer", SenderAvatarSrc: "https://example.com/a.png", Date: at("2024-03-02T00:00:00Z")}
	for _, n := range []core.Notification{older, newer} {
		if err := s.InsertNotification(ctx, n); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	list, err := s.ListNotifications(ctx, user, 50)
	if err != nil || len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("list = %+v, %v", list, err)
	}
	if list[0].SenderAvatarSrc != newer.SenderAvatarSrc {
		t.Fatalf("avatar = %q", list[0].SenderAvatarSrc)
	}
	limited, _ := s.ListNotifications(ctx, user, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}

	read, err := s.MarkNotificationRead(ctx, user, older.ID)
	if err != nil || read.Unread {
		t.Fatalf("mark read = %+v, %v", read, err)
	}
	if _, err := s.MarkNotificationRead(ctx, user, core.NewID()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing notification err = %v", err)
	}
}
