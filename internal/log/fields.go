package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldPath          = "path"
	FieldBackupPath    = "backup_path"
	FieldSchemaVersion = "schema_version"
	FieldUsername      = "username"
	FieldSessionID     = "session_id"
	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldOccurredOn    = "occurred_on"
	FieldPeriodStart   = "period_start"
	FieldPeriodEnd     = "period_end"
	FieldField         = "field"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentCLI         = "cli"
	ComponentStorage     = "storage"
	ComponentCredentials = "credentials"
	ComponentLedger      = "ledger"
	ComponentBudget      = "budget"
)

// Operations defines standard operation names
const (
	OpRegister     = "register"
	OpAuthenticate = "authenticate"
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpUpsert       = "upsert"
	OpReport       = "report"
	OpSnapshot     = "snapshot"
	OpRestore      = "restore"
)
