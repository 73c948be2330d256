package core

import (
	"errors"
	"time"
)

const (
	// DateTimeFormat is the canonical textual form dates take in storage
	// and in imported CSV rows.
	DateTimeFormat = "2006-01-02 15:04:05"

	// DateFormat is the short form accepted from user input.
	DateFormat = "2006-01-02"
)

type (
	// User owns expenses by id. Immutable in this package; credentials are
	// handled elsewhere.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Expense is a single dated, categorized entry. ID 0 means the expense
	// has not been persisted yet; the store assigns an id on first save.
	Expense struct {
		ID          int64
		UserID      int64
		Date        time.Time
		Category    string
		AmountCents int64
		Description string
	}
)

var (
	// ErrNotFound reports that an id has no corresponding row.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized reports that the acting user does not own the
	// resource. Kept distinct from ErrNotFound so callers never leak a
	// resource's existence to a non-owner.
	ErrNotAuthorized = errors.New("not authorized")

	ErrInvalidAmount = errors.New("invalid amount")
)
