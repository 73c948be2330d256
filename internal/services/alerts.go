package services

import (
	"context"
	"fmt"

	"budgetbook/internal/core"
)

// AlertGenerator compares a month's per-category spend against the
// configured budget ceilings.
type AlertGenerator struct {
	budgets *BudgetService
	summary *SummaryService
}

func NewAlertGenerator(budgets *BudgetService, summary *SummaryService) *AlertGenerator {
	return &AlertGenerator{budgets: budgets, summary: summary}
}

// Generate returns category -> overage in major units for every category
// whose spend exceeds its budget this month. Categories without a
// configured budget are silently excluded; a budget with no spend never
// appears.
func (g *AlertGenerator) Generate(ctx context.Context, user *core.User, year, month int) (map[string]float64, error) {
	totals, err := g.summary.PerCategoryTotals(ctx, user, year, month)
	if err != nil {
		return nil, fmt.Errorf("month totals: %w", err)
	}

	alerts := make(map[string]float64)
	for category, budget := range g.budgets.Budgets() {
		stat, spent := totals[category]
		if !spent {
			continue
		}
		if stat.Value > budget && stat.Value > 0 {
			alerts[category] = stat.Value - budget
		}
	}
	return alerts, nil
}
