package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage"
)

// DefaultPageSize is used when a listing request names none.
const DefaultPageSize = 10

var pageSizes = map[int]bool{10: true, 20: true, 30: true}

// ListParams is a validated-on-use listing request.
type ListParams struct {
	Page     int
	PageSize int
	TransactionQuery
}

func (p ListParams) validate() error {
	if p.Page < 1 || !pageSizes[p.PageSize] {
		return core.ErrInvalidQuery
	}
	if _, err := ParsePeriod(string(p.Period)); err != nil {
		return err
	}
	return nil
}

// TransactionService serves the transaction ledger views.
type TransactionService struct {
	stores storage.Provider
	now    func() time.Time
}

func NewTransactionService(stores storage.Provider) *TransactionService {
	return &TransactionService{
		stores: stores,
		now:    time.Now,
	}
}

// ListTransactions returns one page of userID's transactions. A page past
// the end is clamped to the last page.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, p ListParams) (core.TransactionPage, error) {
	if p.Period == "" {
		p.Period = PeriodThisMonth
	}
	if err := p.validate(); err != nil {
		return core.TransactionPage{}, err
	}

	store, err := s.stores.Get(ctx)
	if err != nil {
		return core.TransactionPage{}, err
	}

	expenseCategories, err := store.ListCategories(ctx, userID, core.KindExpense)
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("list categories: %w", err)
	}
	names, err := newNameIndex(ctx, store, userID)
	if err != nil {
		return core.TransactionPage{}, err
	}

	f := BuildTransactionFilter(userID, p.TransactionQuery, expenseCategories, s.now())

	total, err := store.CountTransactions(ctx, f)
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}
	totalPages := (total + p.PageSize - 1) / p.PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := min(p.Page, totalPages)

	rows, err := store.FindTransactions(ctx, f, query.Page{Skip: (page - 1) * p.PageSize, Limit: p.PageSize})
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("find transactions: %w", err)
	}

	items := make([]core.TransactionItem, 0, len(rows))
	for _, t := range rows {
		item := names.item(t)
		item.Note = item.Description
		items = append(items, item)
	}

	categories := make([]string, 0, len(expenseCategories)+1)
	categories = append(categories, CategoryAll)
	for _, c := range expenseCategories {
		categories = append(categories, c.Name)
	}

	return core.TransactionPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		Categories: categories,
	}, nil
}

// GetTransaction returns one denormalized transaction.
func (s *TransactionService) GetTransaction(ctx context.Context, userID, id string) (core.TransactionItem, error) {
	if !core.ValidID(id) {
		return core.TransactionItem{}, core.Invalid("Invalid transaction id")
	}

	store, err := s.stores.Get(ctx)
	if err != nil {
		return core.TransactionItem{}, err
	}

	t, err := store.GetTransaction(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.TransactionItem{}, &core.NotFoundError{Resource: "Transaction"}
	}
	if err != nil {
		return core.TransactionItem{}, fmt.Errorf("get transaction: %w", err)
	}

	names, err := newNameIndex(ctx, store, userID)
	if err != nil {
		return core.TransactionItem{}, err
	}
	item := names.item(t)
	item.Note = t.Note
	return item, nil
}

// nameIndex resolves account and category ids to display names.
type nameIndex struct {
	accounts   map[string]string
	categories map[string]string
}

func newNameIndex(ctx context.Context, store storage.Store, userID string) (nameIndex, error) {
	accounts, err := store.ListAccounts(ctx, userID)
	if err != nil {
		return nameIndex{}, fmt.Errorf("list accounts: %w", err)
	}
	categories, err := store.ListAllCategories(ctx, userID)
	if err != nil {
		return nameIndex{}, fmt.Errorf("list categories: %w", err)
	}

	idx := nameIndex{
		accounts:   make(map[string]string, len(accounts)),
		categories: make(map[string]string, len(categories)),
	}
	for _, a := range accounts {
		idx.accounts[a.ID] = a.Name
	}
	for _, c := range categories {
		idx.categories[c.ID] = c.Name
	}
	return idx, nil
}

func (idx nameIndex) account(id string) string {
	if name := idx.accounts[id]; name != "" {
		return name
	}
	return core.FallbackAccountName
}

func (idx nameIndex) category(id string) string {
	if name := idx.categories[id]; name != "" {
		return name
	}
	return core.FallbackCategoryName
}

func (idx nameIndex) item(t core.Transaction) core.TransactionItem {
	return core.TransactionItem{
		ID:          t.ID,
		Date:        core.ISOTime(t.OccurredAt),
		AccountName: idx.account(t.AccountID),
		Category:    idx.category(t.CategoryID),
		Description: describe(t.Note),
		Kind:        t.Kind,
		Amount:      t.Impact(),
	}
}

func describe(note string) string {
	if note == "" {
		return "-"
	}
	return note
}
