package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"dompet/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, maxBackoff},
		{40, maxBackoff},
	}
	for i, c := range cases {
		if got := exponentialBackoff(c.attempt); got != c.want {
			t.Fatalf("case %d: exponentialBackoff(%d) = %v, want %v", i, c.attempt, got, c.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("use of closed network connection"), true},
		{fmt.Errorf("publish event: %w", amqp091.ErrClosed), true},
		{errors.New("PRECONDITION_FAILED - inequivalent arg"), false},
	}
	for i, c := range cases {
		if got := isConnectionError(c.err); got != c.want {
			t.Fatalf("case %d: isConnectionError(%v) = %v, want %v", i, c.err, got, c.want)
		}
	}
}

func TestCircuitBreaker(t *testing.T) {
	c := &Client{exchangeName: "dompet", queueName: "ledger_events"}
	if c.isCircuitOpen() {
		t.Fatal("new client starts open")
	}

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("opened after %d failures", maxFailures-1)
	}
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("still closed after maxFailures")
	}

	// Once the open timeout has passed the next call probes half-open.
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if c.isCircuitOpen() {
		t.Fatal("still open after timeout")
	}
	if got := atomic.LoadInt32(&c.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}

	// A failed probe reopens immediately.
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("failed probe did not reopen")
	}

	c.recordSuccess()
	if c.isCircuitOpen() || atomic.LoadInt64(&c.failureCount) != 0 {
		t.Fatal("success did not reset the breaker")
	}
}

func TestPublishLedgerEventShortCircuits(t *testing.T) {
	e := NewLedgerEvent(EventBudgetUpdated, "demo-user")

	open := &Client{exchangeName: "dompet", queueName: "ledger_events"}
	atomic.StoreInt32(&open.state, StateOpen)
	open.lastFailure = time.Now()
	err := open.PublishLedgerEvent(context.Background(), e)
	if err == nil || !strings.Contains(err.Error(), "budget.updated") {
		t.Fatalf("open breaker: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	closed := &Client{exchangeName: "dompet", queueName: "ledger_events"}
	if err := closed.PublishLedgerEvent(ctx, e); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx: err = %v", err)
	}
}

func TestLedgerEventForTransaction(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	cases := []struct {
		kind core.Kind
		want int64
	}{
		{core.KindExpense, -150000},
		{core.KindIncome, 150000},
	}
	for i, c := range cases {
		tx := core.Transaction{ID: "tx-1", AccountID: "acc-1", Kind: c.kind, Amount: 150000, OccurredAt: occurred}
		e := NewLedgerEvent(EventTransactionEdited, "demo-user").ForTransaction(tx, "Food")
		if e.Amount != c.want || e.Kind != c.kind {
			t.Fatalf("case %d: amount %d kind %s, want %d", i, e.Amount, e.Kind, c.want)
		}
		if e.TransactionID != "tx-1" || e.AccountID != "acc-1" || e.Category != "Food" || !e.OccurredAt.Equal(occurred) {
			t.Fatalf("case %d: unexpected event %+v", i, e)
		}
	}
}

func TestLedgerEventJSON(t *testing.T) {
	in := NewLedgerEvent(EventBalanceAdjusted, "demo-user")
	in.AccountID = "acc-1"
	in.Amount = 500000
	in.Kind = core.KindIncome

	body, err := in.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"type":"balance.adjusted"`, `"userId":"demo-user"`, `"accountId":"acc-1"`} {
		if !strings.Contains(string(body), field) {
			t.Fatalf("body %s missing %s", body, field)
		}
	}
	if strings.Contains(string(body), "transactionId") {
		t.Fatalf("empty transactionId not omitted: %s", body)
	}

	if _, err := LedgerEventFromJSON([]byte(`{"amount": "lots"}`)); err == nil {
		t.Fatal("expected decode error")
	}
}
