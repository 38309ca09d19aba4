package amqp

import (
	"encoding/json"
	"time"

	"dompet/internal/core"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventExpenseRecorded    EventType = "expense.recorded"
	EventTransactionEdited  EventType = "transaction.edited"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventBalanceAdjusted    EventType = "balance.adjusted"
	EventBudgetUpdated      EventType = "budget.updated"
)

// LedgerEvent is published after every successful ledger mutation.
// Consumers re-read the store for anything beyond these fields.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	UserID        string    `json:"userId"`
	TransactionID string    `json:"transactionId,omitempty"`
	AccountID     string    `json:"accountId,omitempty"`
	Amount        int64     `json:"amount"`
	Kind          core.Kind `json:"kind,omitempty"`
	Category      string    `json:"category,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(eventType EventType, userID string) *LedgerEvent {
	now := time.Now()
	return &LedgerEvent{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: now,
		Timestamp:  now,
	}
}

// ForTransaction fills the transaction fields from t. Amount is the signed
// impact on the account.
func (e *LedgerEvent) ForTransaction(t core.Transaction, category string) *LedgerEvent {
	e.TransactionID = t.ID
	e.AccountID = t.AccountID
	e.Amount = t.Impact()
	e.Kind = t.Kind
	e.Category = category
	e.OccurredAt = t.OccurredAt
	return e
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
