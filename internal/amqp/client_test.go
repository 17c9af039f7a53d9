package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"wrapped", fmt.Errorf("publish: %w", errors.New("connection closed")), true},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func newTestClient() *Client {
	return &Client{
		url:          "amqp://localhost:5672/",
		exchangeName: "pocketbook",
		queueName:    "ledger_events",
	}
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens after max failures", func(t *testing.T) {
		client := newTestClient()
		for i := 0; i < maxFailures-1; i++ {
			client.recordFailure()
			if client.isCircuitOpen() {
				t.Fatalf("circuit opened after %d failures", i+1)
			}
		}
		client.recordFailure()
		if !client.isCircuitOpen() {
			t.Fatal("expected circuit to be open")
		}
	})

	t.Run("success closes the circuit", func(t *testing.T) {
		client := newTestClient()
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		client.recordSuccess()
		if client.isCircuitOpen() {
			t.Fatal("expected circuit to be closed")
		}
		if got := atomic.LoadInt64(&client.failureCount); got != 0 {
			t.Errorf("failureCount = %d, want 0", got)
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		client := newTestClient()
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Fatal("expected circuit to allow a trial request")
		}
		if got := atomic.LoadInt32(&client.state); got != StateHalfOpen {
			t.Errorf("state = %d, want half-open", got)
		}
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		client := newTestClient()
		atomic.StoreInt32(&client.state, StateHalfOpen)
		client.recordFailure()
		if got := atomic.LoadInt32(&client.state); got != StateOpen {
			t.Errorf("state = %d, want open", got)
		}
	})
}

func TestPublishLedgerEvent_FailsFast(t *testing.T) {
	t.Run("circuit open", func(t *testing.T) {
		client := newTestClient()
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishLedgerEvent(context.Background(), NewLedgerEvent(EventIncomeAdded, "alice"))
		if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
			t.Fatalf("expected circuit breaker error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := newTestClient()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.PublishLedgerEvent(ctx, NewLedgerEvent(EventIncomeAdded, "alice"))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLedgerEventJSON(t *testing.T) {
	ev := NewLedgerEvent(EventExpenseAdded, "bob")
	ev.AmountCents = 5000
	ev.Category = "food"

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(data), `"type":"expense_added"`) {
		t.Errorf("unexpected body %s", data)
	}
	if strings.Contains(string(data), "frequency") {
		t.Errorf("empty frequency should be omitted: %s", data)
	}

	got, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if got.ID != ev.ID || got.Username != "bob" || got.AmountCents != 5000 || got.Category != "food" {
		t.Errorf("decoded event = %+v, want %+v", got, ev)
	}
	if !got.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ev.Timestamp)
	}

	if _, err := LedgerEventFromJSON([]byte("{")); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestNewLedgerEventIDsAreUnique(t *testing.T) {
	a := NewLedgerEvent(EventBudgetSet, "alice")
	b := NewLedgerEvent(EventBudgetSet, "alice")
	if a.ID == b.ID {
		t.Error("expected distinct event IDs")
	}
}
