package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"budgetbook/internal/cli"
	"budgetbook/internal/core"
	"budgetbook/internal/services"
	"budgetbook/internal/storage"
)

const usage = `usage: budgetbook <command> [flags]

commands:
  add      record one expense
  list     list a month's expenses, paginated
  report   monthly total and per-category breakdown
  alerts   budget overruns for a month
  years    years with recorded spending
  import   bulk-load expenses from a CSV file
  delete   delete an expense by id
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	events := cli.InitAMQP(logger, cfg)
	if events != nil {
		defer events.Close()
	}

	budgetMap, err := cfg.CategoryBudgets()
	if err != nil {
		logger.Error("Failed to load category budgets", "error", err)
		os.Exit(1)
	}
	budgets := services.NewBudgetService(budgetMap)
	summary := services.NewSummaryService(repo)
	alerts := services.NewAlertGenerator(budgets, summary)
	expenses := services.NewExpenseService(repo, budgets, summary, events)
	importer := services.NewCSVImporter(repo, budgets, summary, events)

	ctx := context.Background()

	app := &app{
		repo:     repo,
		budgets:  budgets,
		summary:  summary,
		alerts:   alerts,
		expenses: expenses,
		importer: importer,
		pageSize: cfg.PageSize,
	}

	var runErr error
	switch os.Args[1] {
	case "add":
		runErr = app.add(ctx, os.Args[2:])
	case "list":
		runErr = app.list(ctx, os.Args[2:])
	case "report":
		runErr = app.report(ctx, os.Args[2:])
	case "alerts":
		runErr = app.alerts_(ctx, os.Args[2:])
	case "years":
		runErr = app.years(ctx, os.Args[2:])
	case "import":
		runErr = app.importCSV(ctx, os.Args[2:])
	case "delete":
		runErr = app.delete(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}

type app struct {
	repo     *storage.SQLiteRepository
	budgets  *services.BudgetService
	summary  *services.SummaryService
	alerts   *services.AlertGenerator
	expenses *services.ExpenseService
	importer *services.CSVImporter
	pageSize int
}

// monthFlags attaches the flags every monthly command shares.
func monthFlags(fs *flag.FlagSet) (user *string, year, month *int) {
	now := time.Now()
	user = fs.String("user", "", "username owning the expenses")
	year = fs.Int("year", now.Year(), "report year")
	month = fs.Int("month", int(now.Month()), "report month (1-12)")
	return user, year, month
}

func (a *app) resolveUser(ctx context.Context, username string) (*core.User, error) {
	if username == "" {
		return nil, errors.New("missing -user")
	}
	return a.repo.FindOrCreateUser(ctx, username)
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	user := fs.String("user", "", "username owning the expense")
	date := fs.String("date", time.Now().Format(core.DateFormat), "expense date (YYYY-MM-DD)")
	amount := fs.String("amount", "", "amount in major units, e.g. 12.30")
	category := fs.String("category", "", "expense category")
	description := fs.String("description", "", "expense description")
	fs.Parse(args)

	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	expense, err := a.expenses.Create(ctx, u, core.ExpenseInput{
		Date:        *date,
		Amount:      *amount,
		Category:    *category,
		Description: *description,
	})
	if err != nil {
		return err
	}

	fmt.Printf("recorded expense %d: %s %.2f (%s)\n",
		expense.ID, expense.Category, core.CentsToMajor(expense.AmountCents), expense.Description)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	user, year, month := monthFlags(fs)
	page := fs.Int("page", 1, "page number")
	fs.Parse(args)

	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	total, err := a.expenses.Count(ctx, u, *year, *month)
	if err != nil {
		return err
	}
	rows, err := a.expenses.List(ctx, u, *year, *month, *page, a.pageSize)
	if err != nil {
		return err
	}

	for _, e := range rows {
		fmt.Printf("%6d  %s  %-16s %8.2f  %s\n",
			e.ID, e.Date.Format(core.DateFormat), e.Category,
			core.CentsToMajor(e.AmountCents), e.Description)
	}
	pages := (total + int64(a.pageSize) - 1) / int64(a.pageSize)
	fmt.Printf("%d expenses, page %d of %d\n", total, *page, pages)
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	user, year, month := monthFlags(fs)
	averages := fs.Bool("averages", false, "show per-category averages instead of totals")
	fs.Parse(args)

	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	totalCents, err := a.summary.TotalExpenditure(ctx, u, *year, *month)
	if err != nil {
		return err
	}

	var report core.AggregateReport
	if *averages {
		report, err = a.summary.PerCategoryAverages(ctx, u, *year, *month)
	} else {
		report, err = a.summary.PerCategoryTotals(ctx, u, *year, *month)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%04d-%02d total: %.2f\n", *year, *month, core.CentsToMajor(totalCents))
	for _, category := range sortedCategories(report) {
		stat := report[category]
		fmt.Printf("  %-16s %10.2f  %6.2f%%\n", category, stat.Value, stat.Percentage)
	}
	return nil
}

func (a *app) alerts_(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	user, year, month := monthFlags(fs)
	fs.Parse(args)

	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	overruns, err := a.alerts.Generate(ctx, u, *year, *month)
	if err != nil {
		return err
	}
	if len(overruns) == 0 {
		fmt.Println("no budget overruns")
		return nil
	}

	categories := make([]string, 0, len(overruns))
	for category := range overruns {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		budget, _ := a.budgets.CategoryBudget(category)
		fmt.Printf("  %-16s over budget (%.2f) by %.2f\n", category, budget, overruns[category])
	}
	return nil
}

func (a *app) years(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("years", flag.ExitOnError)
	user := fs.String("user", "", "username owning the expenses")
	fs.Parse(args)

	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	years, err := a.expenses.ListExpenditureYears(ctx, u)
	if err != nil {
		return err
	}
	for _, y := range years {
		fmt.Println(y)
	}
	return nil
}

func (a *app) importCSV(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	user := fs.String("user", "", "username receiving the imported expenses")
	file := fs.String("file", "", "CSV file: date, amount, description, category")
	fs.Parse(args)

	if *file == "" {
		return errors.New("missing -file")
	}
	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	imported, err := a.importer.Import(ctx, u, f)
	if err != nil {
		return err
	}
	if imported == 0 {
		fmt.Println("nothing imported")
		return nil
	}
	fmt.Printf("imported %d expenses\n", imported)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	user := fs.String("user", "", "username owning the expense")
	id := fs.Int64("id", 0, "expense id")
	fs.Parse(args)

	u, err := a.resolveUser(ctx, *user)
	if err != nil {
		return err
	}

	switch err := a.expenses.Delete(ctx, u, *id); {
	case errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("expense %d not found", *id)
	case errors.Is(err, core.ErrNotAuthorized):
		return fmt.Errorf("not authorized to delete expense %d", *id)
	case err != nil:
		return err
	}

	fmt.Printf("deleted expense %d\n", *id)
	return nil
}

func sortedCategories(report core.AggregateReport) []string {
	categories := make([]string, 0, len(report))
	for category := range report {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
