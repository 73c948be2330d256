// Package worker forwards committed expense events to the export
// destination.
package worker

import (
	"context"
	"fmt"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/export"
	"budgetbook/internal/log"
)

// ExportWorker handles expense events from the queue. Created events are
// appended to the export destination; deleted events are acknowledged and
// logged, since append-only destinations cannot retract rows.
type ExportWorker struct {
	appender export.ExpenseAppender
	logger   *log.Logger
}

func NewExportWorker(appender export.ExpenseAppender) *ExportWorker {
	return &ExportWorker{
		appender: appender,
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one event. Returning an error requeues the
// message for another attempt.
func (w *ExportWorker) HandleEvent(ev *amqp.ExpenseEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch ev.Type {
	case amqp.EventExpenseCreated:
		return w.exportCreated(ctx, ev)
	case amqp.EventExpenseDeleted:
		w.logger.InfoContext(ctx, "Skipping deleted expense, export is append-only",
			log.FieldExpenseID, ev.ID, log.FieldUserID, ev.UserID)
		return nil
	default:
		// Unknown types are dropped, not requeued
		w.logger.WarnContext(ctx, "Dropping event with unknown type", "type", ev.Type)
		return nil
	}
}

func (w *ExportWorker) exportCreated(ctx context.Context, ev *amqp.ExpenseEvent) error {
	date, err := time.Parse(core.DateTimeFormat, ev.Date)
	if err != nil {
		// A malformed date will never parse on retry; log and drop
		w.logger.ErrorContext(ctx, "Dropping event with malformed date",
			log.FieldExpenseID, ev.ID, "date", ev.Date, log.FieldError, err)
		return nil
	}

	expense := core.Expense{
		ID:          ev.ID,
		UserID:      ev.UserID,
		Date:        date,
		Category:    ev.Category,
		AmountCents: ev.AmountCents,
		Description: ev.Description,
	}

	ref, err := w.appender.Append(ctx, expense)
	if err != nil {
		return fmt.Errorf("export expense %d: %w", ev.ID, err)
	}

	w.logger.InfoContext(ctx, "Expense exported", log.FieldExpenseID, ev.ID, "ref", ref)
	return nil
}
