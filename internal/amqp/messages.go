package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names the ledger mutation an event reports.
type EventType string

const (
	EventAccountCreated        EventType = "account_created"
	EventIncomeAdded           EventType = "income_added"
	EventExpenseAdded          EventType = "expense_added"
	EventRecurringExpenseAdded EventType = "recurring_expense_added"
	EventBudgetSet             EventType = "budget_set"
)

// LedgerEvent is a notification that a ledger changed. Consumers must not
// rebuild state from it; the persisted record stays authoritative.
type LedgerEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        EventType `json:"type"`
	Username    string    `json:"username"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Category    string    `json:"category,omitempty"`
	Frequency   string    `json:"frequency,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh ID and the current time.
func NewLedgerEvent(eventType EventType, username string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON parses an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
