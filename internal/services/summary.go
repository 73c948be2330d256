package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"budgetbook/internal/cache"
	"budgetbook/internal/core"
	"budgetbook/internal/criteria"
	"budgetbook/internal/storage"
)

// SummaryService turns raw per-category sums and averages into monthly
// percentage-annotated reports. All monthly aggregations share one
// criteria construction: user match plus the half-open month window.
type SummaryService struct {
	store   *storage.SQLiteRepository
	reports *cache.LRUCache[core.AggregateReport]
}

func NewSummaryService(store *storage.SQLiteRepository) *SummaryService {
	return &SummaryService{
		store:   store,
		reports: cache.NewLRUCache[core.AggregateReport](128, 5*time.Minute),
	}
}

// MonthWindow returns the half-open date range [start, start+1 month) for
// a year and month. The end bound is always derived by adding one calendar
// month to the start, so December rolls into the next January and 28/29/
// 30/31-day months need no special casing.
func MonthWindow(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// monthCriteria builds the canonical criteria every monthly aggregation
// filters by: user match plus the window bounds as two distinct clauses.
func monthCriteria(userID int64, year, month int) *criteria.Criteria {
	start, end := MonthWindow(year, month)
	return criteria.New().
		Where("user_id", criteria.OpEq, userID).
		Where("date", criteria.OpGte, start.Format(core.DateTimeFormat)).
		Where("date", criteria.OpLt, end.Format(core.DateTimeFormat))
}

// TotalExpenditure returns the user's total spend in cents for the month.
// A nil user or an empty month yields 0, not an error.
func (s *SummaryService) TotalExpenditure(ctx context.Context, user *core.User, year, month int) (int64, error) {
	if user == nil {
		return 0, nil
	}
	return s.store.SumAmounts(ctx, monthCriteria(user.ID, year, month))
}

// PerCategoryTotals returns the month's per-category sums with each
// category's percentage share of the grand total.
func (s *SummaryService) PerCategoryTotals(ctx context.Context, user *core.User, year, month int) (core.AggregateReport, error) {
	return s.report(ctx, user, year, month, "sum", s.store.SumAmountsByCategory)
}

// PerCategoryAverages returns the month's per-category averages with each
// category's percentage share of the summed averages.
func (s *SummaryService) PerCategoryAverages(ctx context.Context, user *core.User, year, month int) (core.AggregateReport, error) {
	return s.report(ctx, user, year, month, "avg", s.store.AverageAmountsByCategory)
}

type groupedQuery func(context.Context, *criteria.Criteria) (map[string]int64, error)

func (s *SummaryService) report(ctx context.Context, user *core.User, year, month int, kind string, query groupedQuery) (core.AggregateReport, error) {
	if user == nil {
		return core.AggregateReport{}, nil
	}

	key := reportCacheKey(user.ID, year, month, kind)
	if cached, ok := s.reports.Get(key); ok {
		return cached, nil
	}

	amounts, err := query(ctx, monthCriteria(user.ID, year, month))
	if err != nil {
		return nil, fmt.Errorf("grouped %s: %w", kind, err)
	}

	report := formatReport(amounts)
	s.reports.Set(key, report)
	return report, nil
}

// formatReport converts grouped cents to major units and annotates each
// category with its share of the grand total. Every percentage is computed
// independently from the grand total, never by subtraction, so a single
// category holding all spend reports exactly 100.0.
func formatReport(amounts map[string]int64) core.AggregateReport {
	var grandTotalCents int64
	for _, cents := range amounts {
		grandTotalCents += cents
	}
	grandTotal := core.CentsToMajor(grandTotalCents)

	report := make(core.AggregateReport, len(amounts))
	for category, cents := range amounts {
		value := core.CentsToMajor(cents)
		percentage := 0.0
		if grandTotal > 0 {
			percentage = round2(value / grandTotal * 100)
		}
		report[category] = core.CategoryStat{
			Value:      value,
			Percentage: percentage,
		}
	}
	return report
}

// Invalidate drops every cached report for the user. Called after any
// write touching the user's expenses.
func (s *SummaryService) Invalidate(userID int64) {
	s.reports.DeletePrefix(fmt.Sprintf("%d/", userID))
}

func reportCacheKey(userID int64, year, month int, kind string) string {
	return fmt.Sprintf("%d/%d/%d/%s", userID, year, month, kind)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
