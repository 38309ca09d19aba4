package main

import (
	"context"
	"testing"
	"time"

	"dompet/internal/calendar"
	"dompet/internal/services"
	"dompet/internal/storage"
	"dompet/internal/storage/memory"
)

func TestSeederRun(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	stores := storage.Static(store)

	// Late in the month so at least four weeks of demo expenses land in it.
	now := calendar.MonthRange(time.Now()).End.Add(-time.Hour)
	s := &seeder{stores: stores, ledger: services.NewLedger(stores, nil), now: func() time.Time { return now }}

	res, err := s.run(ctx, "demo-user")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res.AccountsOpened != len(demoAccounts) || res.Expenses != demoExpenses {
		t.Fatalf("first run = %+v", res)
	}

	spent := map[string]int64{}
	for i := 0; i < demoExpenses; i++ {
		spent[demoAccounts[i%len(demoAccounts)].name] += demoAmount(i)
	}
	accounts, err := store.ListAccounts(ctx, "demo-user")
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != len(demoAccounts) {
		t.Fatalf("accounts = %d", len(accounts))
	}
	for _, a := range accounts {
		var want int64
		for _, d := range demoAccounts {
			if d.name == a.Name {
				want = d.balance - spent[d.name]
			}
		}
		if a.Balance != want {
			t.Fatalf("%s balance = %d, want %d", a.Name, a.Balance, want)
		}
	}

	categories, err := store.ListAllCategories(ctx, "demo-user")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range categories {
		if c.Name == "Food" && c.Color != "#0EA5E9" {
			t.Fatalf("Food color = %q", c.Color)
		}
	}

	res, err = s.run(ctx, "demo-user")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.AccountsOpened != 0 || res.Expenses != 0 {
		t.Fatalf("second run = %+v, want nothing new", res)
	}
}

func TestDemoAmount(t *testing.T) {
	cases := []struct {
		i    int
		want int64
	}{
		{0, 45000},
		{1, 62321},
		{13, 45000 + (13*17321)%210000},
	}
	for i, c := range cases {
		if got := demoAmount(c.i); got != c.want {
			t.Fatalf("case %d: demoAmount(%d) = %d, want %d", i, c.i, got, c.want)
		}
	}
}
