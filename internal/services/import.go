package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

// CSVImporter bulk-loads historical expenses from a CSV stream. One row is
// [date, amount, description, category] with no header. The whole batch
// runs inside a single storage transaction: planned skips (short rows,
// in-batch duplicates, unknown categories) continue the loop, while any
// other row failure rolls everything back and surfaces one import error.
//
// Duplicate detection is batch-local only: a row is a duplicate of an
// earlier row in the same file whose raw fields match exactly. Rows
// already in storage are never consulted, so re-importing the same file
// double-counts.
type CSVImporter struct {
	store   *storage.SQLiteRepository
	budgets *BudgetService
	summary *SummaryService
	events  *amqp.Client
}

// NewCSVImporter wires the pipeline. events may be nil.
func NewCSVImporter(store *storage.SQLiteRepository, budgets *BudgetService, summary *SummaryService, events *amqp.Client) *CSVImporter {
	return &CSVImporter{
		store:   store,
		budgets: budgets,
		summary: summary,
		events:  events,
	}
}

// Import streams the CSV and returns the count of committed rows. A nil
// error with count 0 means nothing qualified; a non-nil error means the
// transaction rolled back and nothing was committed, regardless of how
// many rows had been processed before the failure.
func (p *CSVImporter) Import(ctx context.Context, user *core.User, r io.Reader) (int, error) {
	if user == nil {
		return 0, core.ErrNotAuthorized
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row width is checked per row below

	tx, err := p.store.BeginImport(ctx)
	if err != nil {
		return 0, fmt.Errorf("import csv: %w", err)
	}

	imported := 0
	row := 0
	visited := make(map[string]bool)
	var committed []core.Expense

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("import csv: read row %d: %w", row+1, err)
		}
		row++

		if len(record) < 4 {
			slog.WarnContext(ctx, "Skipping incomplete row", "row", row, "fields", len(record))
			continue
		}

		// The raw fields joined form the in-batch dedupe key; first
		// occurrence wins.
		key := strings.Join(record, "-")
		if visited[key] {
			slog.WarnContext(ctx, "Skipping duplicate row", "row", row)
			continue
		}

		date, amount, description, category := record[0], record[1], record[2], record[3]

		if _, ok := p.budgets.CategoryBudget(category); !ok {
			slog.WarnContext(ctx, "Skipping row with unknown category", "row", row, "category", category)
			continue
		}

		if strings.TrimSpace(description) == "" {
			// Imported anyway; flagged for the operator
			slog.WarnContext(ctx, "Row has empty description", "row", row)
		}

		parsedDate, err := time.Parse(core.DateTimeFormat, date)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("import csv: row %d: parse date %q: %w", row, date, err)
		}

		cents, err := core.ParseDecimalToCents(amount)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("import csv: row %d: parse amount %q: %w", row, amount, err)
		}

		expense := core.Expense{
			UserID:      user.ID,
			Date:        parsedDate,
			Category:    category,
			AmountCents: cents,
			Description: description,
		}
		if err := tx.InsertExpense(ctx, expense); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("import csv: row %d: %w", row, err)
		}

		visited[key] = true
		imported++
		committed = append(committed, expense)
		slog.DebugContext(ctx, "Row imported", "row", row, "category", category, "amount_cents", cents)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import csv: %w", err)
	}

	if p.summary != nil {
		p.summary.Invalidate(user.ID)
	}
	// Events go out only after the batch is durable
	if p.events != nil {
		for _, e := range committed {
			if err := p.events.PublishExpenseEvent(ctx, amqp.NewExpenseCreated(e)); err != nil {
				slog.ErrorContext(ctx, "Failed to publish imported expense event", "error", err)
				break
			}
		}
	}

	slog.InfoContext(ctx, "CSV import committed",
		"user_id", user.ID,
		"rows", row,
		"imported", imported)
	return imported, nil
}
