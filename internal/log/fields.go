package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldCollection = "collection"
	FieldEntryID    = "entry_id"
	FieldEntryType  = "entry_type"
	FieldAccountID  = "account_id"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldBalance    = "balance"
	FieldDelta      = "delta"
	FieldKey        = "key"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldCount      = "count"
	FieldBackend    = "backend"
	FieldSheetsRef  = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentSettings = "settings"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
	ComponentExport   = "export"
	ComponentCLI      = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpTransfer = "transfer"
	OpLoad     = "load"
	OpPersist  = "persist"
	OpPublish  = "publish"
	OpRestore  = "restore"
	OpExport   = "export"
	OpSync     = "sync"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeBalance       = "balance_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithCollection(c string) LogFields {
	f[FieldCollection] = c
	return f
}

// WithEntry adds spending entry fields. Amounts are logged as strings to keep
// decimal precision.
func (f LogFields) WithEntry(id, entryType, amount, category string) LogFields {
	f[FieldEntryID] = id
	f[FieldEntryType] = entryType
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithBalance(accountID, delta, balance string) LogFields {
	f[FieldAccountID] = accountID
	f[FieldDelta] = delta
	f[FieldBalance] = balance
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
