package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

// ExpenseService owns the expense lifecycle: validated writes, ownership
// checks, paginated monthly listing. The acting user is always an explicit
// parameter; there is no ambient session state.
type ExpenseService struct {
	store   *storage.SQLiteRepository
	budgets *BudgetService
	summary *SummaryService
	events  *amqp.Client
}

// NewExpenseService wires the service. events may be nil; lifecycle
// publishing is best-effort and never fails a write.
func NewExpenseService(store *storage.SQLiteRepository, budgets *BudgetService, summary *SummaryService, events *amqp.Client) *ExpenseService {
	return &ExpenseService{
		store:   store,
		budgets: budgets,
		summary: summary,
		events:  events,
	}
}

// Create validates the input, persists a new expense for the user and
// returns it with its assigned id. Validation failures come back as
// core.FieldErrors with every failing field.
func (s *ExpenseService) Create(ctx context.Context, user *core.User, in core.ExpenseInput) (*core.Expense, error) {
	if user == nil {
		return nil, core.ErrNotAuthorized
	}

	date, cents, errs := core.ValidateExpenseInput(in, s.budgets.Categories(), time.Now())
	if errs != nil {
		return nil, errs
	}

	expense := &core.Expense{
		UserID:      user.ID,
		Date:        date,
		Category:    in.Category,
		AmountCents: cents,
		Description: in.Description,
	}
	if err := s.store.Save(ctx, expense); err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	s.invalidate(user.ID)
	s.publish(ctx, amqp.NewExpenseCreated(*expense))
	return expense, nil
}

// Update validates the input and rewrites the expense matched by id.
// Returns core.ErrNotFound for a missing id and core.ErrNotAuthorized
// when the acting user is not the owner.
func (s *ExpenseService) Update(ctx context.Context, user *core.User, id int64, in core.ExpenseInput) error {
	expense, err := s.authorized(ctx, user, id)
	if err != nil {
		return err
	}

	date, cents, errs := core.ValidateExpenseInput(in, s.budgets.Categories(), time.Now())
	if errs != nil {
		return errs
	}

	expense.Date = date
	expense.Category = in.Category
	expense.AmountCents = cents
	expense.Description = in.Description

	if err := s.store.Save(ctx, expense); err != nil {
		return fmt.Errorf("save expense: %w", err)
	}

	s.invalidate(user.ID)
	return nil
}

// Delete removes the user's expense by id. A non-owner gets
// core.ErrNotAuthorized and no storage delete is ever issued for them.
func (s *ExpenseService) Delete(ctx context.Context, user *core.User, id int64) error {
	expense, err := s.authorized(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, expense.ID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.invalidate(user.ID)
	s.publish(ctx, amqp.NewExpenseDeleted(expense.ID, user.ID))
	return nil
}

// Find returns the user's expense by id, distinguishing a missing row
// (core.ErrNotFound) from someone else's row (core.ErrNotAuthorized).
func (s *ExpenseService) Find(ctx context.Context, user *core.User, id int64) (*core.Expense, error) {
	return s.authorized(ctx, user, id)
}

// List returns one page of the user's expenses for the month, ordered
// stably by id.
func (s *ExpenseService) List(ctx context.Context, user *core.User, year, month, page, pageSize int) ([]core.Expense, error) {
	if user == nil {
		return nil, core.ErrNotAuthorized
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return s.store.FindBy(ctx, monthCriteria(user.ID, year, month), offset, pageSize)
}

// Count returns how many expenses the user has in the month, for
// computing pagination bounds without materializing rows.
func (s *ExpenseService) Count(ctx context.Context, user *core.User, year, month int) (int64, error) {
	if user == nil {
		return 0, core.ErrNotAuthorized
	}
	return s.store.CountBy(ctx, monthCriteria(user.ID, year, month))
}

// ListExpenditureYears returns the user's years with spending, newest
// first.
func (s *ExpenseService) ListExpenditureYears(ctx context.Context, user *core.User) ([]int, error) {
	if user == nil {
		return nil, core.ErrNotAuthorized
	}
	return s.store.ListExpenditureYears(ctx, user.ID)
}

func (s *ExpenseService) authorized(ctx context.Context, user *core.User, id int64) (*core.Expense, error) {
	if user == nil {
		return nil, core.ErrNotAuthorized
	}
	expense, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	if expense == nil {
		return nil, core.ErrNotFound
	}
	if expense.UserID != user.ID {
		return nil, core.ErrNotAuthorized
	}
	return expense, nil
}

func (s *ExpenseService) invalidate(userID int64) {
	if s.summary != nil {
		s.summary.Invalidate(userID)
	}
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, ev); err != nil {
		// Don't fail the request - the write already committed
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", ev.Type, "id", ev.ID, "error", err)
	}
}
