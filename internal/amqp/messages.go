package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetbook/internal/core"
)

// EventType discriminates expense lifecycle events on the wire.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is the message published after an expense write commits.
// It carries the full row so consumers never need a database round-trip
// for deleted rows.
type ExpenseEvent struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewExpenseCreated builds a created event from a persisted expense.
func NewExpenseCreated(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:        EventExpenseCreated,
		ID:          e.ID,
		UserID:      e.UserID,
		Date:        e.Date.Format(core.DateTimeFormat),
		Category:    e.Category,
		AmountCents: e.AmountCents,
		Description: e.Description,
		OccurredAt:  time.Now().UTC(),
	}
}

// NewExpenseDeleted builds a deleted event for an expense id.
func NewExpenseDeleted(id, userID int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:       EventExpenseDeleted,
		ID:         id,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON serializes the event for publishing.
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON deserializes a consumed message body.
func ExpenseEventFromJSON(body []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal expense event: %w", err)
	}
	if msg.Type != EventExpenseCreated && msg.Type != EventExpenseDeleted {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
