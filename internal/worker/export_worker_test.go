package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
)

type fakeAppender struct {
	appended []core.Expense
	err      error
}

func (f *fakeAppender) Append(_ context.Context, e core.Expense) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, e)
	return "row-1", nil
}

func createdEvent() *amqp.ExpenseEvent {
	return amqp.NewExpenseCreated(core.Expense{
		ID:          42,
		UserID:      7,
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Category:    "Groceries",
		AmountCents: 1230,
		Description: "Lunch",
	})
}

func TestHandleEventAppendsCreated(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(appender)

	if err := w.HandleEvent(createdEvent()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(appender.appended) != 1 {
		t.Fatalf("expected 1 appended expense, got %d", len(appender.appended))
	}
	got := appender.appended[0]
	if got.ID != 42 || got.AmountCents != 1230 || got.Category != "Groceries" {
		t.Fatalf("unexpected appended expense: %+v", got)
	}
	if !got.Date.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", got.Date)
	}
}

func TestHandleEventSkipsDeleted(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(appender)

	if err := w.HandleEvent(amqp.NewExpenseDeleted(42, 7)); err != nil {
		t.Fatalf("deleted events must ack cleanly: %v", err)
	}
	if len(appender.appended) != 0 {
		t.Fatal("deleted events must never be appended")
	}
}

func TestHandleEventDropsUnknownType(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(appender)

	ev := createdEvent()
	ev.Type = "expense.exploded"
	if err := w.HandleEvent(ev); err != nil {
		t.Fatalf("unknown types must be dropped, not requeued: %v", err)
	}
	if len(appender.appended) != 0 {
		t.Fatal("unknown types must never be appended")
	}
}

func TestHandleEventDropsMalformedDate(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(appender)

	ev := createdEvent()
	ev.Date = "yesterday"
	if err := w.HandleEvent(ev); err != nil {
		t.Fatalf("a date that will never parse must be dropped, not requeued: %v", err)
	}
	if len(appender.appended) != 0 {
		t.Fatal("malformed events must never be appended")
	}
}

func TestHandleEventRequeuesOnAppendFailure(t *testing.T) {
	appender := &fakeAppender{err: errors.New("quota exceeded")}
	w := NewExportWorker(appender)

	if err := w.HandleEvent(createdEvent()); err == nil {
		t.Fatal("append failures must surface so the message is requeued")
	}
}
