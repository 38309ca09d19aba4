package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dompet/internal/amqp"
	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/storage"
	"dompet/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type recordingInvalidator struct{ users []string }

func (r *recordingInvalidator) InvalidateUser(userID string) { r.users = append(r.users, userID) }

// failingBalances refuses every balance write.
type failingBalances struct{ *memory.Store }

func (failingBalances) IncrementBalance(context.Context, string, string, int64) error {
	return errors.New("write conflict")
}

func newLedger(s storage.Store, pub EventPublisher, inv ...Invalidator) *Ledger {
	l := NewLedger(storage.Static(s), pub, inv...)
	l.now = fixedClock
	return l
}

func TestLedgerBalanceLifecycle(t *testing.T) {
	s := memory.New()
	pub := &recordingPublisher{}
	inv := &recordingInvalidator{}
	l := newLedger(s, pub, inv)
	ctx := context.Background()

	id, err := l.RecordExpense(ctx, testUser, core.ExpenseInput{AccountName: "Cash Wallet", CategoryName: "Food", Amount: amount(100)})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := balanceOf(t, s, "Cash Wallet"); got != -100 {
		t.Fatalf("after create balance = %d, want -100", got)
	}

	when := testNow
	res, err := l.EditTransaction(ctx, testUser, id, core.TransactionEdit{AccountName: "Cash Wallet", CategoryName: "Food", Amount: amount(150), OccurredAt: &when})
	if err != nil {
		t.Fatalf("edit amount: %v", err)
	}
	if res.ID != id || res.Amount != -150 {
		t.Fatalf("edit result = %+v", res)
	}
	if got := balanceOf(t, s, "Cash Wallet"); got != -150 {
		t.Fatalf("after edit balance = %d, want -150", got)
	}

	if _, err := l.EditTransaction(ctx, testUser, id, core.TransactionEdit{AccountName: "BCA Savings", CategoryName: "Food", Amount: amount(150), OccurredAt: &when}); err != nil {
		t.Fatalf("edit account: %v", err)
	}
	if old, moved := balanceOf(t, s, "Cash Wallet"), balanceOf(t, s, "BCA Savings"); old != 0 || moved != -150 {
		t.Fatalf("after move balances = %d, %d, want 0, -150", old, moved)
	}

	if err := l.DeleteTransaction(ctx, testUser, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, s, "BCA Savings"); got != 0 {
		t.Fatalf("after delete balance = %d, want 0", got)
	}
	if _, err := s.GetTransaction(ctx, testUser, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("transaction still present: %v", err)
	}

	wantTypes := []amqp.EventType{amqp.EventExpenseRecorded, amqp.EventTransactionEdited, amqp.EventTransactionEdited, amqp.EventTransactionDeleted}
	if len(pub.events) != len(wantTypes) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(wantTypes))
	}
	for i, e := range pub.events {
		if e.Type != wantTypes[i] || e.TransactionID != id || e.UserID != testUser {
			t.Fatalf("event %d = %+v", i, e)
		}
	}
	if pub.events[0].Amount != -100 || pub.events[0].Category != "Food" {
		t.Fatalf("create event = %+v", pub.events[0])
	}
	if len(inv.users) != 4 || inv.users[0] != testUser {
		t.Fatalf("invalidations = %v", inv.users)
	}
}

func TestLedgerEditWithoutAccountUsesCashWallet(t *testing.T) {
	s := memory.New()
	l := newLedger(s, nil)
	ctx := context.Background()

	id, err := l.RecordExpense(ctx, testUser, core.ExpenseInput{AccountName: "BCA Savings", CategoryName: "Food", Amount: amount(40)})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	when := at("2024-03-10T01:00:00Z")
	if _, err := l.EditTransaction(ctx, testUser, id, core.TransactionEdit{CategoryName: "Snacks", Amount: amount(40), Note: " chips ", OccurredAt: &when}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if bca, cash := balanceOf(t, s, "BCA Savings"), balanceOf(t, s, core.FallbackAccountName); bca != 0 || cash != -40 {
		t.Fatalf("balances = %d, %d", bca, cash)
	}
	tx, _ := s.GetTransaction(ctx, testUser, id)
	if tx.Note != "chips" || !tx.OccurredAt.Equal(when) {
		t.Fatalf("transaction not overwritten: %+v", tx)
	}
}

func TestLedgerValidatesBeforeWriting(t *testing.T) {
	s := memory.New()
	l := newLedger(s, nil)
	ctx := context.Background()

	_, err := l.RecordExpense(ctx, testUser, core.ExpenseInput{AccountName: "Cash Wallet", CategoryName: "F", Amount: amount(10)})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if accounts, _ := s.ListAccounts(ctx, testUser); len(accounts) != 0 {
		t.Fatalf("account created despite invalid input: %+v", accounts)
	}

	if err := l.DeleteTransaction(ctx, testUser, "abc"); !errors.As(err, &ve) || ve.Message != "Invalid transaction id" {
		t.Fatalf("delete bad id err = %v", err)
	}
	var nf *core.NotFoundError
	if err := l.DeleteTransaction(ctx, testUser, core.NewID()); !errors.As(err, &nf) {
		t.Fatalf("delete missing err = %v", err)
	}
	when := testNow
	if _, err := l.EditTransaction(ctx, testUser, core.NewID(), core.TransactionEdit{CategoryName: "Food", Amount: amount(1), OccurredAt: &when}); !errors.As(err, &nf) {
		t.Fatalf("edit missing err = %v", err)
	}
}

func TestLedgerCompensatesFailedDebit(t *testing.T) {
	s := memory.New()
	l := newLedger(failingBalances{s}, nil)
	ctx := context.Background()

	if _, err := l.RecordExpense(ctx, testUser, core.ExpenseInput{AccountName: "Cash Wallet", CategoryName: "Food", Amount: amount(10)}); err == nil {
		t.Fatal("expected debit failure")
	}
	n, err := s.CountTransactions(ctx, BuildTransactionFilter(testUser, TransactionQuery{Period: PeriodAllTime}, nil, testNow))
	if err != nil || n != 0 {
		t.Fatalf("transactions left behind: %d, %v", n, err)
	}
}

func TestLedgerPublishFailureDoesNotFailMutation(t *testing.T) {
	s := memory.New()
	l := newLedger(s, &recordingPublisher{err: errors.New("circuit breaker is open")})

	if _, err := l.RecordExpense(context.Background(), testUser, core.ExpenseInput{AccountName: "Cash Wallet", CategoryName: "Food", Amount: amount(10)}); err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestAdjustBalance(t *testing.T) {
	s := memory.New()
	var ops []string
	l := newLedger(s, nil)
	l.OnMutation(func(op string) { ops = append(ops, op) })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.AdjustBalance(ctx, testUser, core.BalanceInput{AccountName: "BCA Savings", AccountType: "bank", Amount: amount(4500000)}); err != nil {
			t.Fatalf("adjust %d: %v", i, err)
		}
	}
	accounts, _ := s.ListAccounts(ctx, testUser)
	if len(accounts) != 1 || accounts[0].Balance != 9000000 || accounts[0].Type != "bank" {
		t.Fatalf("accounts = %+v", accounts)
	}
	if len(ops) != 2 {
		t.Fatalf("observed %d mutations", len(ops))
	}

	if err := l.AdjustBalance(ctx, testUser, core.BalanceInput{AccountName: "Petty", Amount: amount(-5)}); err == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestSetBudgetLimit(t *testing.T) {
	s := memory.New()
	l := newLedger(s, nil)
	ctx := context.Background()
	month := calendar.MonthRange(testNow)

	warning, critical := 95, 80
	if err := l.SetBudgetLimit(ctx, testUser, core.BudgetLimitInput{LimitAmount: amount(1000), WarningThreshold: &warning, CriticalThreshold: &critical}); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := s.ActiveBudget(ctx, testUser, month)
	if err != nil {
		t.Fatalf("active budget: %v", err)
	}
	if b.LimitAmount != 1000 || !b.StartDate.Equal(month.Start) || !b.EndDate.Equal(month.End) {
		t.Fatalf("budget = %+v", b)
	}
	if w, c := b.Thresholds(); w != core.DefaultWarningLevel || c != core.DefaultCriticalLevel {
		t.Fatalf("thresholds = %d/%d, want defaults", w, c)
	}

	warning, critical = 50, 75
	if err := l.SetBudgetLimit(ctx, testUser, core.BudgetLimitInput{LimitAmount: amount(2000), WarningThreshold: &warning, CriticalThreshold: &critical}); err != nil {
		t.Fatalf("set again: %v", err)
	}
	b, _ = s.ActiveBudget(ctx, testUser, month)
	if w, c := b.Thresholds(); b.LimitAmount != 2000 || w != 50 || c != 75 {
		t.Fatalf("updated budget = %+v", b)
	}
}

func TestEditIncomeReturnsPositiveImpact(t *testing.T) {
	s := memory.New()
	l := newLedger(s, &recordingPublisher{})
	ctx := context.Background()

	cash, err := s.ResolveAccount(ctx, testUser, "Cash Wallet", core.DefaultAccountType)
	if err != nil {
		t.Fatalf("resolve account: %v", err)
	}
	salary, _ := s.ResolveCategory(ctx, testUser, core.KindIncome, "Salary", core.DefaultCategoryColor)
	tx := insertTx(t, s, core.Transaction{Kind: core.KindIncome, Amount: 5000, AccountID: cash.ID, CategoryID: salary.ID, OccurredAt: testNow})
	if err := s.IncrementBalance(ctx, testUser, cash.ID, 5000); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	when := testNow
	res, err := l.EditTransaction(ctx, testUser, tx.ID, core.TransactionEdit{AccountName: "Cash Wallet", CategoryName: "Salary", Amount: amount(6000), OccurredAt: &when})
	if err != nil {
		t.Fatalf("edit income: %v", err)
	}
	if res.Amount != 6000 {
		t.Fatalf("edit result amount = %d, want 6000", res.Amount)
	}
	if got := balanceOf(t, s, "Cash Wallet"); got != 6000 {
		t.Fatalf("balance = %d, want 6000", got)
	}
}
