package services

import (
	"reflect"
	"testing"
)

func TestNewBudgetServiceFromJSON(t *testing.T) {
	svc, err := NewBudgetServiceFromJSON(`{"Groceries": 300.0, "Transport": 50}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := svc.CategoryBudget("Groceries"); !ok || v != 300 {
		t.Fatalf("expected Groceries budget 300, got %v (ok=%v)", v, ok)
	}
	if v, ok := svc.CategoryBudget("Transport"); !ok || v != 50 {
		t.Fatalf("expected Transport budget 50, got %v (ok=%v)", v, ok)
	}
	if _, ok := svc.CategoryBudget("Yachts"); ok {
		t.Fatal("expected no budget for unknown category")
	}
}

func TestNewBudgetServiceFromJSONEmptyAndInvalid(t *testing.T) {
	svc, err := NewBudgetServiceFromJSON("")
	if err != nil {
		t.Fatalf("empty input must yield an empty service: %v", err)
	}
	if len(svc.Budgets()) != 0 {
		t.Fatalf("expected no budgets, got %v", svc.Budgets())
	}

	if _, err := NewBudgetServiceFromJSON(`{"Groceries": "a lot"}`); err == nil {
		t.Fatal("expected error for non-numeric ceiling")
	}
	if _, err := NewBudgetServiceFromJSON(`not json`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestCategoriesSorted(t *testing.T) {
	svc := NewBudgetService(map[string]float64{"Transport": 50, "Dining": 100, "Groceries": 300})
	want := []string{"Dining", "Groceries", "Transport"}
	if got := svc.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNewBudgetServiceNilMap(t *testing.T) {
	svc := NewBudgetService(nil)
	if svc.Budgets() == nil {
		t.Fatal("expected non-nil budget map")
	}
	if len(svc.Categories()) != 0 {
		t.Fatalf("expected no categories, got %v", svc.Categories())
	}
}
