package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/criteria"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistence boundary for expenses and users.
// Every read operation is parameterized by criteria so listing, counting,
// summing and grouped aggregation share one filter-construction path.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withCriteria appends a WHERE fragment built from c to base. Empty or nil
// criteria leave the statement unfiltered.
func withCriteria(base string, c *criteria.Criteria) (string, []any, error) {
	if c == nil || c.Empty() {
		return base, nil, nil
	}
	where, args, err := c.Build()
	if err != nil {
		return "", nil, fmt.Errorf("build criteria: %w", err)
	}
	return base + " WHERE " + where, args, nil
}

// Save inserts the expense and assigns its id when it has none, otherwise
// updates the row matched by id. Last writer wins; there is no locking.
func (r *SQLiteRepository) Save(ctx context.Context, e *core.Expense) error {
	if e.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO expenses (user_id, date, category, amount_cents, description)
			 VALUES (?, ?, ?, ?, ?)`,
			e.UserID, e.Date.Format(core.DateTimeFormat), e.Category, e.AmountCents, e.Description)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("expense insert id: %w", err)
		}
		e.ID = id

		slog.InfoContext(ctx, "Expense saved",
			"id", e.ID,
			"user_id", e.UserID,
			"category", e.Category,
			"amount_cents", e.AmountCents)
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET user_id = ?, date = ?, category = ?, amount_cents = ?, description = ?
		 WHERE id = ?`,
		e.UserID, e.Date.Format(core.DateTimeFormat), e.Category, e.AmountCents, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// Delete removes the row by id. Deleting an absent id is a no-op, not an
// error; callers needing a not-found signal check existence first.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// Find returns the expense by id, or (nil, nil) when absent.
func (r *SQLiteRepository) Find(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, description
		 FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// FindBy returns the expenses matching all criteria clauses conjunctively,
// ordered by id for stable pagination.
func (r *SQLiteRepository) FindBy(ctx context.Context, c *criteria.Criteria, offset, limit int) ([]core.Expense, error) {
	query, args, err := withCriteria(
		`SELECT id, user_id, date, category, amount_cents, description FROM expenses`, c)
	if err != nil {
		return nil, err
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// CountBy returns the number of rows matching the criteria without
// materializing them; used to compute pagination bounds.
func (r *SQLiteRepository) CountBy(ctx context.Context, c *criteria.Criteria) (int64, error) {
	query, args, err := withCriteria(`SELECT COUNT(id) FROM expenses`, c)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

// SumAmounts returns the total amount in cents over the matching rows.
// An empty match set yields 0.
func (r *SQLiteRepository) SumAmounts(ctx context.Context, c *criteria.Criteria) (int64, error) {
	query, args, err := withCriteria(`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses`, c)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// SumAmountsByCategory returns per-category totals in cents.
func (r *SQLiteRepository) SumAmountsByCategory(ctx context.Context, c *criteria.Criteria) (map[string]int64, error) {
	return r.groupedAmounts(ctx, c, `SUM(amount_cents)`)
}

// AverageAmountsByCategory returns per-category averages in cents, rounded
// to the nearest cent in SQL.
func (r *SQLiteRepository) AverageAmountsByCategory(ctx context.Context, c *criteria.Criteria) (map[string]int64, error) {
	return r.groupedAmounts(ctx, c, `CAST(ROUND(AVG(amount_cents)) AS INTEGER)`)
}

func (r *SQLiteRepository) groupedAmounts(ctx context.Context, c *criteria.Criteria, aggregate string) (map[string]int64, error) {
	query, args, err := withCriteria(`SELECT category, `+aggregate+` FROM expenses`, c)
	if err != nil {
		return nil, err
	}
	query += ` GROUP BY category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouped amounts: %w", err)
	}
	defer rows.Close()

	amounts := make(map[string]int64)
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan grouped amount: %w", err)
		}
		amounts[category] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grouped amounts: %w", err)
	}
	return amounts, nil
}

// ListExpenditureYears returns the distinct years with at least one expense
// for the user, newest first.
func (r *SQLiteRepository) ListExpenditureYears(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(strftime('%Y', date) AS INTEGER) AS year
		 FROM expenses
		 WHERE user_id = ?
		 ORDER BY year DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenditure years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate years: %w", err)
	}
	return years, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExpense(row scannable) (*core.Expense, error) {
	var e core.Expense
	var date string
	if err := row.Scan(&e.ID, &e.UserID, &date, &e.Category, &e.AmountCents, &e.Description); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(core.DateTimeFormat, date)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	e.Date = parsed
	return &e, nil
}
