package core

import (
	"sort"
	"strings"
	"time"
)

// ExpenseInput carries the raw textual fields of a candidate expense before
// they reach the store.
type ExpenseInput struct {
	Date        string
	Amount      string
	Description string
	Category    string
}

// FieldErrors maps a field name to its failure message. All failing fields
// are reported together so a caller can surface every problem in one pass.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateExpenseInput checks every field of in independently and collects
// all failures; it never stops at the first one. On success it returns the
// parsed date and the amount converted to cents.
//
// The date must parse in DateFormat or DateTimeFormat and must not be in
// the future relative to now. The category must be non-empty and a member
// of allowedCategories. The amount must be a decimal number strictly
// greater than zero. The description must be non-empty after trimming.
func ValidateExpenseInput(in ExpenseInput, allowedCategories []string, now time.Time) (date time.Time, cents int64, errs FieldErrors) {
	errs = FieldErrors{}

	if strings.TrimSpace(in.Date) == "" {
		errs["date"] = "Date is required."
	} else {
		parsed, err := parseDate(in.Date)
		if err != nil {
			errs["date"] = "Date must be in format YYYY-MM-DD."
		} else if parsed.After(now) {
			errs["date"] = "Date cannot be in the future."
		} else {
			date = parsed
		}
	}

	if strings.TrimSpace(in.Category) == "" {
		errs["category"] = "Category must be selected."
	} else {
		known := false
		for _, c := range allowedCategories {
			if c == in.Category {
				known = true
				break
			}
		}
		if !known {
			errs["category"] = "Invalid category."
		}
	}

	parsedCents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		errs["amount"] = "Amount must be a number greater than zero."
	} else {
		cents = parsedCents
	}

	if strings.TrimSpace(in.Description) == "" {
		errs["description"] = "Description cannot be empty."
	}

	if len(errs) == 0 {
		return date, cents, nil
	}
	return time.Time{}, 0, errs
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(DateFormat, s)
}
