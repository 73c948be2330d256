package services

import (
	"context"
	"testing"
	"time"
)

func TestMonthWindow(t *testing.T) {
	cases := []struct {
		year, month int
		start, end  time.Time
	}{
		{2025, 1, day(2025, time.January, 1), day(2025, time.February, 1)},
		{2024, 2, day(2024, time.February, 1), day(2024, time.March, 1)}, // leap February
		{2025, 2, day(2025, time.February, 1), day(2025, time.March, 1)},
		{2025, 12, day(2025, time.December, 1), day(2026, time.January, 1)}, // year rollover
	}
	for _, tc := range cases {
		start, end := MonthWindow(tc.year, tc.month)
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Fatalf("%d-%02d: expected [%v, %v), got [%v, %v)",
				tc.year, tc.month, tc.start, tc.end, start, end)
		}
	}
}

func TestTotalExpenditure(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	seedExpense(t, store, u.ID, day(2025, time.May, 31), "Groceries", 111)
	seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 1230)
	seedExpense(t, store, u.ID, day(2025, time.June, 30), "Transport", 770)
	seedExpense(t, store, u.ID, day(2025, time.July, 1), "Groceries", 222)

	total, err := summary.TotalExpenditure(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("total failed: %v", err)
	}
	if total != 2000 {
		t.Fatalf("expected 2000 cents, got %d", total)
	}

	total, err = summary.TotalExpenditure(ctx, nil, 2025, 6)
	if err != nil || total != 0 {
		t.Fatalf("nil user must yield 0, got %d (err=%v)", total, err)
	}
}

func TestPerCategoryTotalsPercentages(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 7500)
	seedExpense(t, store, u.ID, day(2025, time.June, 2), "Transport", 2500)

	report, err := summary.PerCategoryTotals(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 categories, got %v", report)
	}

	g := report["Groceries"]
	if g.Value != 75.0 || g.Percentage != 75.0 {
		t.Fatalf("expected Groceries 75.00 at 75%%, got %+v", g)
	}
	tr := report["Transport"]
	if tr.Value != 25.0 || tr.Percentage != 25.0 {
		t.Fatalf("expected Transport 25.00 at 25%%, got %+v", tr)
	}
	if g.Percentage+tr.Percentage != 100.0 {
		t.Fatalf("percentages must sum to 100, got %v", g.Percentage+tr.Percentage)
	}
}

func TestSingleCategoryIsExactly100Percent(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 333)

	report, err := summary.PerCategoryTotals(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report["Groceries"].Percentage != 100.0 {
		t.Fatalf("expected exactly 100.0, got %v", report["Groceries"].Percentage)
	}
}

func TestEmptyMonthReport(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	report, err := summary.PerCategoryTotals(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("empty month must not error: %v", err)
	}
	if len(report) != 0 {
		t.Fatalf("expected empty report, got %v", report)
	}
}

func TestPerCategoryAverages(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 1000)
	seedExpense(t, store, u.ID, day(2025, time.June, 2), "Groceries", 2000)
	seedExpense(t, store, u.ID, day(2025, time.June, 3), "Transport", 500)

	report, err := summary.PerCategoryAverages(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	// AVG(1000, 2000) = 1500; grand total of averages 1500+500 = 2000.
	if report["Groceries"].Value != 15.0 {
		t.Fatalf("expected Groceries average 15.00, got %v", report["Groceries"].Value)
	}
	if report["Groceries"].Percentage != 75.0 {
		t.Fatalf("expected Groceries share 75%%, got %v", report["Groceries"].Percentage)
	}
	if report["Transport"].Value != 5.0 || report["Transport"].Percentage != 25.0 {
		t.Fatalf("expected Transport 5.00 at 25%%, got %+v", report["Transport"])
	}
}

func TestInvalidateDropsCachedReports(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	seedExpense(t, store, u.ID, day(2025, time.June, 1), "Groceries", 1000)

	first, err := summary.PerCategoryTotals(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if first["Groceries"].Value != 10.0 {
		t.Fatalf("expected 10.00, got %v", first["Groceries"].Value)
	}

	// A write the cache hasn't seen: the stale report keeps being served
	// until the user's entries are invalidated.
	seedExpense(t, store, u.ID, day(2025, time.June, 2), "Transport", 1000)

	stale, err := summary.PerCategoryTotals(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("expected cached single-category report, got %v", stale)
	}

	summary.Invalidate(u.ID)

	fresh, err := summary.PerCategoryTotals(ctx, u, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("expected fresh two-category report after invalidation, got %v", fresh)
	}
	if fresh["Groceries"].Percentage != 50.0 || fresh["Transport"].Percentage != 50.0 {
		t.Fatalf("expected 50/50 split, got %v", fresh)
	}
}

func TestInvalidateIsPerUser(t *testing.T) {
	store := newTestStore(t)
	summary := NewSummaryService(store)
	ctx := context.Background()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")

	seedExpense(t, store, alice.ID, day(2025, time.June, 1), "Groceries", 1000)
	seedExpense(t, store, bob.ID, day(2025, time.June, 1), "Groceries", 2000)

	if _, err := summary.PerCategoryTotals(ctx, alice, 2025, 6); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if _, err := summary.PerCategoryTotals(ctx, bob, 2025, 6); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	// Invalidating alice must not drop bob's cached report.
	seedExpense(t, store, bob.ID, day(2025, time.June, 2), "Transport", 1000)
	summary.Invalidate(alice.ID)

	bobReport, err := summary.PerCategoryTotals(ctx, bob, 2025, 6)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(bobReport) != 1 {
		t.Fatalf("expected bob's stale cached report to survive, got %v", bobReport)
	}
}
