// Package worker turns ledger events into feed notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dompet/internal/amqp"
	"dompet/internal/calendar"
	"dompet/internal/core"
	"dompet/internal/query"
	"dompet/internal/storage"
)

// Consumer delivers ledger events until ctx is done.
type Consumer interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// Notifier writes a notification for each ledger event it handles and an
// extra alert when an expense moves the month's budget into a worse status.
type Notifier struct {
	stores  storage.Provider
	printer *message.Printer
	now     func() time.Time
}

func NewNotifier(stores storage.Provider) *Notifier {
	return &Notifier{
		stores:  stores,
		printer: message.NewPrinter(language.Indonesian),
		now:     time.Now,
	}
}

// Run consumes events from c until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, c Consumer) error {
	slog.InfoContext(ctx, "Notification worker started")
	err := c.ConsumeLedgerEvents(ctx, n.HandleLedgerEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleLedgerEvent processes a single event. A returned error requeues it.
func (n *Notifier) HandleLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	if e.UserID == "" {
		slog.WarnContext(ctx, "Dropping ledger event without user", "type", e.Type)
		return nil
	}

	store, err := n.stores.Get(ctx)
	if err != nil {
		return err
	}

	body, err := n.describe(ctx, store, e)
	if err != nil {
		return err
	}
	if body == "" {
		slog.DebugContext(ctx, "Ignoring ledger event", "type", e.Type)
		return nil
	}
	if err := n.notify(ctx, store, e.UserID, body); err != nil {
		return err
	}

	if e.Type == amqp.EventExpenseRecorded {
		return n.checkBudget(ctx, store, e)
	}
	return nil
}

func (n *Notifier) describe(ctx context.Context, store storage.Store, e *amqp.LedgerEvent) (string, error) {
	amount := n.rupiah(abs(e.Amount))
	switch e.Type {
	case amqp.EventExpenseRecorded:
		category := e.Category
		if category == "" {
			category = core.FallbackCategoryName
		}
		return fmt.Sprintf("Expense of %s recorded in %s", amount, category), nil
	case amqp.EventTransactionEdited:
		return fmt.Sprintf("Transaction updated to %s", amount), nil
	case amqp.EventTransactionDeleted:
		return fmt.Sprintf("Transaction of %s deleted", amount), nil
	case amqp.EventBalanceAdjusted:
		name := core.FallbackAccountName
		account, err := store.GetAccount(ctx, e.UserID, e.AccountID)
		switch {
		case err == nil:
			name = account.Name
		case !errors.Is(err, storage.ErrNotFound):
			return "", fmt.Errorf("get account: %w", err)
		}
		return fmt.Sprintf("%s topped up by %s", name, amount), nil
	case amqp.EventBudgetUpdated:
		return fmt.Sprintf("Monthly budget set to %s", amount), nil
	default:
		return "", nil
	}
}

// checkBudget alerts when the expense in e pushed the budget of its month
// from one status into a worse one.
func (n *Notifier) checkBudget(ctx context.Context, store storage.Store, e *amqp.LedgerEvent) error {
	month := calendar.MonthRange(e.OccurredAt)
	budget, err := store.ActiveBudget(ctx, e.UserID, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("active budget: %w", err)
	}

	spent, err := store.SumAmount(ctx, query.Where(
		query.Eq(query.FieldUserID, e.UserID),
		query.Eq(query.FieldKind, string(core.KindExpense)),
		query.Between(query.FieldOccurredAt, month.Start, month.End),
	))
	if err != nil {
		return fmt.Errorf("sum monthly spending: %w", err)
	}

	warning, critical := budget.Thresholds()
	after := core.BudgetProgress(spent, budget.LimitAmount)
	before := core.BudgetProgress(spent-abs(e.Amount), budget.LimitAmount)
	from := core.StatusFor(before, warning, critical)
	to := core.StatusFor(after, warning, critical)
	if severity(to) <= severity(from) {
		return nil
	}

	body := fmt.Sprintf("Monthly budget is %s: %d%% of %s used", to, after, n.rupiah(budget.LimitAmount))
	slog.InfoContext(ctx, "Budget status changed", "user_id", e.UserID, "from", from, "to", to, "progress", after)
	return n.notify(ctx, store, e.UserID, body)
}

func (n *Notifier) notify(ctx context.Context, store storage.Store, userID, body string) error {
	now := n.now().UTC()
	err := store.InsertNotification(ctx, core.Notification{
		ID:         core.NewID(),
		UserID:     userID,
		Unread:     true,
		SenderName: core.DefaultSenderName,
		Body:       body,
		Date:       now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (n *Notifier) rupiah(v int64) string {
	return n.printer.Sprintf("Rp%d", v)
}

func severity(s core.BudgetStatus) int {
	switch s {
	case core.BudgetCritical:
		return 2
	case core.BudgetWarning:
		return 1
	default:
		return 0
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
