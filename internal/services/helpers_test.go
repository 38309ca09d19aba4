package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage/memory"
)

const testUser = "demo-user"

// testNow is 2024-03-15 12:00 in civil time.
var testNow = time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)

var pageAll = query.Page{}

func fixedClock() time.Time { return testNow }

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func insertTx(t *testing.T, s *memory.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	if tx.ID == "" {
		tx.ID = core.NewID()
	}
	if tx.UserID == "" {
		tx.UserID = testUser
	}
	if tx.Kind == "" {
		tx.Kind = core.KindExpense
	}
	if err := s.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return tx
}

func balanceOf(t *testing.T, s *memory.Store, name string) int64 {
	t.Helper()
	accounts, err := s.ListAccounts(context.Background(), testUser)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	for _, a := range accounts {
		if a.Name == name {
			return a.Balance
		}
	}
	t.Fatalf("account %q not found", name)
	return 0
}
