package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetbook/internal/core"
)

// ImportTx is one storage transaction held for the duration of a CSV
// import batch. All inserted rows become visible together on Commit;
// Rollback discards every one of them.
type ImportTx struct {
	tx *sql.Tx
}

// BeginImport opens the transaction the import pipeline drives.
func (r *SQLiteRepository) BeginImport(ctx context.Context) (*ImportTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import transaction: %w", err)
	}
	return &ImportTx{tx: tx}, nil
}

// InsertExpense writes one accepted row inside the batch transaction.
// It never assigns ids back; imported rows are not reused as entities.
func (t *ImportTx) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO expenses (user_id, date, category, amount_cents, description)
		 VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Date.Format(core.DateTimeFormat), e.Category, e.AmountCents, e.Description)
	if err != nil {
		return fmt.Errorf("insert imported expense: %w", err)
	}
	return nil
}

func (t *ImportTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (t *ImportTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback import: %w", err)
	}
	return nil
}
