package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

var testBudgets = map[string]float64{
	"Groceries": 300,
	"Transport": 50,
	"Dining":    100,
}

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestUser(t *testing.T, store *storage.SQLiteRepository, username string) *core.User {
	t.Helper()
	u, err := store.FindOrCreateUser(context.Background(), username)
	if err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return u
}

func seedExpense(t *testing.T, store *storage.SQLiteRepository, userID int64, date time.Time, category string, cents int64) *core.Expense {
	t.Helper()
	e := &core.Expense{
		UserID:      userID,
		Date:        date,
		Category:    category,
		AmountCents: cents,
		Description: "seeded",
	}
	if err := store.Save(context.Background(), e); err != nil {
		t.Fatalf("failed to seed expense: %v", err)
	}
	return e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
