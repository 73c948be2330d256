package services

import (
	"encoding/json"
	"fmt"
	"sort"
)

// BudgetService holds the per-category budget ceilings, in major units.
// Loaded once at process start; read-only afterwards. The budget map's
// keys double as the allowed-category set for validation and import.
type BudgetService struct {
	budgets map[string]float64
}

func NewBudgetService(budgets map[string]float64) *BudgetService {
	if budgets == nil {
		budgets = map[string]float64{}
	}
	return &BudgetService{budgets: budgets}
}

// NewBudgetServiceFromJSON parses a configuration JSON object of the form
// {"Groceries": 300.0, "Transport": 50}.
func NewBudgetServiceFromJSON(raw string) (*BudgetService, error) {
	budgets := map[string]float64{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &budgets); err != nil {
			return nil, fmt.Errorf("parse category budgets: %w", err)
		}
	}
	return NewBudgetService(budgets), nil
}

// Budgets returns the category -> ceiling map.
func (s *BudgetService) Budgets() map[string]float64 {
	return s.budgets
}

// CategoryBudget returns the ceiling for a category and whether one is
// configured.
func (s *BudgetService) CategoryBudget(category string) (float64, bool) {
	v, ok := s.budgets[category]
	return v, ok
}

// Categories returns the configured category names, sorted.
func (s *BudgetService) Categories() []string {
	names := make([]string, 0, len(s.budgets))
	for name := range s.budgets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
