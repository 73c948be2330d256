package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldUsername    = "username"
	FieldExpenseID   = "expense_id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldRow         = "row"
	FieldImported    = "imported"
	FieldSkipped     = "skipped"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStorage = "storage"
	ComponentExpense = "expense"
	ComponentSummary = "summary"
	ComponentAlerts  = "alerts"
	ComponentImport  = "import"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpReport  = "report"
	OpAlert   = "alert"
	OpImport  = "import"
	OpExport  = "export"
	OpStartup = "startup"
)
