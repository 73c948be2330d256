// Package export defines the outbound port for pushing committed
// expenses to an external destination.
package export

import (
	"context"

	"budgetbook/internal/core"
)

// ExpenseAppender appends one expense row to the export destination and
// returns an opaque reference to the appended row.
type ExpenseAppender interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
