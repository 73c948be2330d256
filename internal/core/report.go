package core

// CategoryStat is one category's share of a monthly aggregate.
type CategoryStat struct {
	// Value is the aggregated amount in major units.
	Value float64
	// Percentage is the category's share of the grand total, rounded to
	// two decimal places. 0.0 when the grand total is zero.
	Percentage float64
}

// AggregateReport maps a category name to its aggregated statistic for a
// month window. Produced by the summary service, consumed by reporting
// callers and the alert engine.
type AggregateReport map[string]CategoryStat
