package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

func newExpenseFixture(t *testing.T) (*ExpenseService, *storage.SQLiteRepository) {
	t.Helper()
	store := newTestStore(t)
	budgets := NewBudgetService(testBudgets)
	summary := NewSummaryService(store)
	return NewExpenseService(store, budgets, summary, nil), store
}

func TestCreateAndFind(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	created, err := svc.Create(ctx, u, core.ExpenseInput{
		Date:        "2025-06-01",
		Amount:      "12.30",
		Category:    "Groceries",
		Description: "Lunch",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an id to be assigned")
	}
	if created.AmountCents != 1230 {
		t.Fatalf("expected 1230 cents, got %d", created.AmountCents)
	}

	found, err := svc.Find(ctx, u, created.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.Category != "Groceries" || found.Description != "Lunch" {
		t.Fatalf("round trip mismatch: %+v", found)
	}
}

func TestCreateValidationCollectsAllFailures(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	_, err := svc.Create(ctx, u, core.ExpenseInput{
		Date:        "never",
		Amount:      "-1",
		Category:    "Yachts",
		Description: "  ",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var fe core.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected core.FieldErrors, got %T: %v", err, err)
	}
	if len(fe) != 4 {
		t.Fatalf("expected all four fields to fail, got %v", fe)
	}

	count, err := store.CountBy(ctx, nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid input must not persist anything, got %d rows", count)
	}
}

func TestCreateNilUser(t *testing.T) {
	svc, _ := newExpenseFixture(t)

	_, err := svc.Create(context.Background(), nil, core.ExpenseInput{})
	if !errors.Is(err, core.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestUpdateRewritesOwnExpense(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")
	e := seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 1000)

	err := svc.Update(ctx, u, e.ID, core.ExpenseInput{
		Date:        "2025-06-02",
		Amount:      "25.00",
		Category:    "Transport",
		Description: "Train ticket",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	found, err := svc.Find(ctx, u, e.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.Category != "Transport" || found.AmountCents != 2500 || found.Description != "Train ticket" {
		t.Fatalf("expected updated row, got %+v", found)
	}
}

func TestDeleteDistinguishesMissingFromForeign(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	owner := newTestUser(t, store, "alice")
	intruder := newTestUser(t, store, "bob")
	e := seedExpense(t, store, owner.ID, day(2025, time.June, 1), "Groceries", 1000)

	if err := svc.Delete(ctx, intruder, e.ID); !errors.Is(err, core.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for foreign row, got %v", err)
	}

	// The row must survive the rejected attempt.
	found, err := svc.Find(ctx, owner, e.ID)
	if err != nil {
		t.Fatalf("owner must still see the row: %v", err)
	}
	if found == nil || found.ID != e.ID {
		t.Fatal("row vanished after rejected delete")
	}

	if err := svc.Delete(ctx, owner, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent id, got %v", err)
	}

	if err := svc.Delete(ctx, owner, e.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := svc.Find(ctx, owner, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateForeignExpenseRejected(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	owner := newTestUser(t, store, "alice")
	intruder := newTestUser(t, store, "bob")
	e := seedExpense(t, store, owner.ID, day(2025, time.June, 1), "Groceries", 1000)

	err := svc.Update(ctx, intruder, e.ID, core.ExpenseInput{
		Date:        "2025-06-02",
		Amount:      "1.00",
		Category:    "Transport",
		Description: "hijack",
	})
	if !errors.Is(err, core.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	found, _ := svc.Find(ctx, owner, e.ID)
	if found.Category != "Groceries" || found.AmountCents != 1000 {
		t.Fatalf("foreign update must not touch the row, got %+v", found)
	}
}

func TestListAndCountPaginate(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	for i := 0; i < 5; i++ {
		seedExpense(t, store, u.ID, day(2025, time.June, 1+i), "Groceries", 100)
	}
	seedExpense(t, store, u.ID, day(2025, time.July, 1), "Groceries", 100)

	total, err := svc.Count(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 in June, got %d", total)
	}

	page1, err := svc.List(ctx, u, 2025, 6, 1, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	page3, err := svc.List(ctx, u, 2025, 6, 3, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page1) != 2 || len(page3) != 1 {
		t.Fatalf("expected pages of 2 and 1, got %d and %d", len(page1), len(page3))
	}

	// Page numbers below 1 clamp to the first page.
	clamped, err := svc.List(ctx, u, 2025, 6, 0, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(clamped) != 2 || clamped[0].ID != page1[0].ID {
		t.Fatal("expected page 0 to behave as page 1")
	}
}

func TestListExpenditureYearsViaService(t *testing.T) {
	svc, store := newExpenseFixture(t)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	seedExpense(t, store, u.ID, day(2023, time.March, 1), "Groceries", 100)
	seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 100)

	years, err := svc.ListExpenditureYears(ctx, u)
	if err != nil {
		t.Fatalf("years failed: %v", err)
	}
	if len(years) != 2 || years[0] != 2025 || years[1] != 2023 {
		t.Fatalf("expected [2025 2023], got %v", years)
	}

	if _, err := svc.ListExpenditureYears(ctx, nil); !errors.Is(err, core.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for nil user, got %v", err)
	}
}
