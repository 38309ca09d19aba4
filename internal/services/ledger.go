package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/log"
	"dompet/internal/storage"
)

// EventPublisher receives an event after every committed ledger mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Invalidator drops per-user derived state, such as cached summaries.
type Invalidator interface {
	InvalidateUser(userID string)
}

// MutationObserver is told about each successful mutation by operation name.
type MutationObserver func(op string)

// EditResult is returned by EditTransaction. Amount is the new signed
// impact of the transaction: negative for an expense, positive for an
// income.
type EditResult struct {
	ID     string
	Amount int64
}

// Ledger applies balance-affecting mutations. Each mutation is a sequence
// of store writes; when a later step fails, the earlier balance writes are
// compensated so the account matches the transactions again.
type Ledger struct {
	stores       storage.Provider
	publisher    EventPublisher
	invalidators []Invalidator
	observe      MutationObserver
	now          func() time.Time
}

// NewLedger creates a ledger. publisher may be nil, in which case no
// events are published.
func NewLedger(stores storage.Provider, publisher EventPublisher, invalidators ...Invalidator) *Ledger {
	return &Ledger{
		stores:       stores,
		publisher:    publisher,
		invalidators: invalidators,
		observe:      func(string) {},
		now:          time.Now,
	}
}

// OnMutation registers fn to be called after each successful mutation.
func (l *Ledger) OnMutation(fn MutationObserver) {
	if fn != nil {
		l.observe = fn
	}
}

// RecordExpense creates an expense, resolving its account and category by
// name, and debits the account. It returns the new transaction id.
func (l *Ledger) RecordExpense(ctx context.Context, userID string, in core.ExpenseInput) (string, error) {
	amount, err := in.Normalize()
	if err != nil {
		return "", err
	}

	store, err := l.stores.Get(ctx)
	if err != nil {
		return "", err
	}

	account, err := store.ResolveAccount(ctx, userID, in.AccountName, core.DefaultAccountType)
	if err != nil {
		return "", &core.ResolutionError{Entity: "account", Err: err}
	}
	category, err := store.ResolveCategory(ctx, userID, core.KindExpense, in.CategoryName, core.DefaultCategoryColor)
	if err != nil {
		return "", &core.ResolutionError{Entity: "category", Err: err}
	}

	now := l.now().UTC()
	occurredAt := now
	if in.OccurredAt != nil && !in.OccurredAt.IsZero() {
		occurredAt = in.OccurredAt.UTC()
	}

	t := core.Transaction{
		ID:         core.NewID(),
		UserID:     userID,
		AccountID:  account.ID,
		CategoryID: category.ID,
		Kind:       core.KindExpense,
		Amount:     amount,
		Note:       in.Note,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.InsertTransaction(ctx, t); err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	if err := store.IncrementBalance(ctx, userID, account.ID, t.Impact()); err != nil {
		l.compensate(ctx, "remove unbalanced transaction", t.ID, func() error {
			return store.DeleteTransaction(ctx, userID, t.ID)
		})
		return "", fmt.Errorf("debit account %s: %w", account.ID, err)
	}

	l.committed(ctx, log.OpCreate, userID, amqp.NewLedgerEvent(amqp.EventExpenseRecorded, userID).ForTransaction(t, category.Name))
	return t.ID, nil
}

// EditTransaction overwrites a transaction and moves its balance impact to
// the (possibly different) target account.
func (l *Ledger) EditTransaction(ctx context.Context, userID, id string, in core.TransactionEdit) (EditResult, error) {
	if !core.ValidID(id) {
		return EditResult{}, core.Invalid("Invalid transaction id")
	}
	amount, err := in.Normalize()
	if err != nil {
		return EditResult{}, err
	}

	store, err := l.stores.Get(ctx)
	if err != nil {
		return EditResult{}, err
	}

	old, err := store.GetTransaction(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return EditResult{}, &core.NotFoundError{Resource: "Transaction"}
	}
	if err != nil {
		return EditResult{}, fmt.Errorf("get transaction: %w", err)
	}

	account, err := store.ResolveAccount(ctx, userID, in.AccountName, core.DefaultAccountType)
	if err != nil {
		return EditResult{}, &core.ResolutionError{Entity: "account", Err: err}
	}
	category, err := store.ResolveCategory(ctx, userID, old.Kind, in.CategoryName, core.DefaultCategoryColor)
	if err != nil {
		return EditResult{}, &core.ResolutionError{Entity: "category", Err: err}
	}

	updated := old
	updated.AccountID = account.ID
	updated.CategoryID = category.ID
	updated.Amount = amount
	updated.Note = in.Note
	updated.OccurredAt = in.OccurredAt.UTC()
	updated.UpdatedAt = l.now().UTC()

	applied, err := l.moveImpact(ctx, store, userID, old, updated)
	if err != nil {
		return EditResult{}, err
	}

	if err := store.UpdateTransaction(ctx, updated); err != nil {
		l.compensate(ctx, "revert balance move", id, func() error {
			return revert(ctx, store, userID, applied)
		})
		return EditResult{}, fmt.Errorf("update transaction: %w", err)
	}

	l.committed(ctx, log.OpUpdate, userID, amqp.NewLedgerEvent(amqp.EventTransactionEdited, userID).ForTransaction(updated, category.Name))
	return EditResult{ID: id, Amount: updated.Impact()}, nil
}

// balanceChange is one applied increment, kept so it can be reverted.
type balanceChange struct {
	accountID string
	delta     int64
}

// moveImpact rebalances accounts for old becoming updated and returns the
// increments it applied.
func (l *Ledger) moveImpact(ctx context.Context, store storage.Store, userID string, old, updated core.Transaction) ([]balanceChange, error) {
	var applied []balanceChange
	apply := func(accountID string, delta int64) error {
		if err := store.IncrementBalance(ctx, userID, accountID, delta); err != nil {
			return err
		}
		applied = append(applied, balanceChange{accountID: accountID, delta: delta})
		return nil
	}

	if old.AccountID == updated.AccountID {
		if delta := updated.Impact() - old.Impact(); delta != 0 {
			if err := apply(updated.AccountID, delta); err != nil {
				return nil, fmt.Errorf("adjust account %s: %w", updated.AccountID, err)
			}
		}
		return applied, nil
	}

	if old.AccountID != "" {
		err := apply(old.AccountID, -old.Impact())
		switch {
		case errors.Is(err, storage.ErrNotFound):
			slog.WarnContext(ctx, "Previous account missing, not reversing impact",
				"transaction_id", old.ID, "account_id", old.AccountID)
		case err != nil:
			return nil, fmt.Errorf("reverse previous account %s: %w", old.AccountID, err)
		}
	}
	if err := apply(updated.AccountID, updated.Impact()); err != nil {
		if rerr := revert(ctx, store, userID, applied); rerr != nil {
			slog.ErrorContext(ctx, "Failed to revert balance move", "transaction_id", old.ID, "error", rerr)
		}
		return nil, fmt.Errorf("apply to account %s: %w", updated.AccountID, err)
	}
	return applied, nil
}

func revert(ctx context.Context, store storage.Store, userID string, applied []balanceChange) error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		if err := store.IncrementBalance(ctx, userID, c.accountID, -c.delta); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", c.accountID, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteTransaction reverses a transaction's impact on its account and
// removes it.
func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id string) error {
	if !core.ValidID(id) {
		return core.Invalid("Invalid transaction id")
	}

	store, err := l.stores.Get(ctx)
	if err != nil {
		return err
	}

	t, err := store.GetTransaction(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return &core.NotFoundError{Resource: "Transaction"}
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	reversed := false
	if t.AccountID != "" {
		err := store.IncrementBalance(ctx, userID, t.AccountID, -t.Impact())
		switch {
		case errors.Is(err, storage.ErrNotFound):
			slog.WarnContext(ctx, "Account missing, deleting without reversal",
				"transaction_id", id, "account_id", t.AccountID)
		case err != nil:
			return fmt.Errorf("reverse account %s: %w", t.AccountID, err)
		default:
			reversed = true
		}
	}

	if err := store.DeleteTransaction(ctx, userID, id); err != nil {
		if reversed {
			l.compensate(ctx, "restore reversed impact", id, func() error {
				return store.IncrementBalance(ctx, userID, t.AccountID, t.Impact())
			})
		}
		if errors.Is(err, storage.ErrNotFound) {
			return &core.NotFoundError{Resource: "Transaction"}
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	l.committed(ctx, log.OpDelete, userID, amqp.NewLedgerEvent(amqp.EventTransactionDeleted, userID).ForTransaction(t, ""))
	return nil
}

// AdjustBalance credits an account, creating it with the given type when
// the name is new.
func (l *Ledger) AdjustBalance(ctx context.Context, userID string, in core.BalanceInput) error {
	amount, err := in.Normalize()
	if err != nil {
		return err
	}

	store, err := l.stores.Get(ctx)
	if err != nil {
		return err
	}

	account, err := store.ResolveAccount(ctx, userID, in.AccountName, in.AccountType)
	if err != nil {
		return &core.ResolutionError{Entity: "account", Err: err}
	}
	if err := store.IncrementBalance(ctx, userID, account.ID, amount); err != nil {
		return fmt.Errorf("credit account %s: %w", account.ID, err)
	}

	event := amqp.NewLedgerEvent(amqp.EventBalanceAdjusted, userID)
	event.AccountID = account.ID
	event.Amount = amount
	event.Kind = core.KindIncome
	l.committed(ctx, log.OpTopUp, userID, event)
	return nil
}

// SetBudgetLimit sets the overall budget of the current civil month.
func (l *Ledger) SetBudgetLimit(ctx context.Context, userID string, in core.BudgetLimitInput) error {
	limit, warning, critical, err := in.Normalize()
	if err != nil {
		return err
	}

	store, err := l.stores.Get(ctx)
	if err != nil {
		return err
	}

	now := l.now().UTC()
	month := calendar.MonthRange(now)
	err = store.UpsertBudget(ctx, core.Budget{
		UserID:          userID,
		Scope:           core.ScopeOverall,
		Period:          core.PeriodMonthly,
		StartDate:       month.Start,
		EndDate:         month.End,
		LimitAmount:     limit,
		AlertThresholds: []int{warning, critical},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	event := amqp.NewLedgerEvent(amqp.EventBudgetUpdated, userID)
	event.Amount = limit
	l.committed(ctx, log.OpBudget, userID, event)
	return nil
}

// committed runs the post-commit side effects. None of them can fail the
// mutation.
func (l *Ledger) committed(ctx context.Context, op, userID string, event *amqp.LedgerEvent) {
	for _, inv := range l.invalidators {
		inv.InvalidateUser(userID)
	}
	l.observe(op)

	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentLedger)).
		LogLedgerMutation(ctx, op, userID, event.TransactionID, event.AccountID, event.Amount)

	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type, "transaction_id", event.TransactionID, "error", err)
	}
}

func (l *Ledger) compensate(ctx context.Context, step, transactionID string, fn func() error) {
	if err := fn(); err != nil {
		slog.ErrorContext(ctx, "Compensation failed, ledger may be inconsistent",
			"step", step, "transaction_id", transactionID, "error", err)
		return
	}
	slog.WarnContext(ctx, "Compensated partial mutation", "step", step, "transaction_id", transactionID)
}
