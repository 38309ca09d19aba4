package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dompet/internal/core"
	"dompet/internal/storage"
	"dompet/internal/storage/memory"
)

func newTransactionService(s *memory.Store) *TransactionService {
	svc := NewTransactionService(storage.Static(s))
	svc.now = fixedClock
	return svc
}

func TestListTransactionsClampsPage(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	food, _ := s.ResolveCategory(ctx, testUser, core.KindExpense, "Food", core.DefaultCategoryColor)
	salary, _ := s.ResolveCategory(ctx, testUser, core.KindIncome, "Salary", core.DefaultCategoryColor)
	start := at("2024-03-01T00:00:00Z")
	for i := 0; i < 25; i++ {
		insertTx(t, s, core.Transaction{Amount: int64(100 + i), CategoryID: food.ID, OccurredAt: start.Add(time.Duration(i) * time.Hour)})
	}

	svc := newTransactionService(s)
	page, err := svc.ListTransactions(ctx, testUser, ListParams{Page: 5, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 25 || page.TotalPages != 3 || page.Page != 3 || len(page.Items) != 5 {
		t.Fatalf("total=%d totalPages=%d page=%d items=%d", page.Total, page.TotalPages, page.Page, len(page.Items))
	}
	// Oldest five, newest first.
	if page.Items[0].Amount != -104 || page.Items[4].Amount != -100 {
		t.Fatalf("unexpected last page order: %+v", page.Items)
	}
	item := page.Items[0]
	if item.AccountName != core.FallbackAccountName || item.Category != "Food" || item.Description != "-" || item.Note != "-" {
		t.Fatalf("unexpected denormalisation: %+v", item)
	}
	if len(page.Categories) != 2 || page.Categories[0] != CategoryAll || page.Categories[1] != "Food" {
		t.Fatalf("categories = %v", page.Categories)
	}

	insertTx(t, s, core.Transaction{Kind: core.KindIncome, Amount: 5000, CategoryID: salary.ID, OccurredAt: testNow})
	page, err = svc.ListTransactions(ctx, testUser, ListParams{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if first := page.Items[0]; first.Amount != 5000 || first.Category != "Salary" {
		t.Fatalf("income row = %+v", first)
	}
}

func TestListTransactionsEmpty(t *testing.T) {
	page, err := newTransactionService(memory.New()).ListTransactions(context.Background(), testUser, ListParams{Page: 3, PageSize: 30})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 1 || page.TotalPages != 1 || page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("unexpected empty page: %+v", page)
	}
}

func TestListTransactionsRejectsBadQuery(t *testing.T) {
	svc := newTransactionService(memory.New())
	bad := []ListParams{
		{Page: 0, PageSize: 10},
		{Page: 1, PageSize: 15},
		{Page: 1, PageSize: 10, TransactionQuery: TransactionQuery{Period: "forever"}},
	}
	for i, p := range bad {
		_, err := svc.ListTransactions(context.Background(), testUser, p)
		if !errors.Is(err, core.ErrInvalidQuery) {
			t.Fatalf("case %d: err = %v, want invalid query", i, err)
		}
	}
}

func TestGetTransaction(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	account, _ := s.ResolveAccount(ctx, testUser, "BCA Savings", "bank")
	tx := insertTx(t, s, core.Transaction{AccountID: account.ID, CategoryID: core.NewID(), Amount: 750, OccurredAt: testNow})
	svc := newTransactionService(s)

	item, err := svc.GetTransaction(ctx, testUser, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.AccountName != "BCA Savings" || item.Category != core.FallbackCategoryName || item.Note != "" || item.Description != "-" || item.Amount != -750 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Date != "2024-03-15T05:00:00.000Z" {
		t.Fatalf("date = %s", item.Date)
	}

	var ve *core.ValidationError
	if _, err := svc.GetTransaction(ctx, testUser, "not-an-id"); !errors.As(err, &ve) || ve.Message != "Invalid transaction id" {
		t.Fatalf("bad id err = %v", err)
	}
	var nf *core.NotFoundError
	if _, err := svc.GetTransaction(ctx, testUser, core.NewID()); !errors.As(err, &nf) || nf.Error() != "Transaction not found" {
		t.Fatalf("missing err = %v", err)
	}
	if _, err := svc.GetTransaction(ctx, "someone-else", tx.ID); !errors.As(err, &nf) {
		t.Fatalf("other user err = %v", err)
	}
}
