package log

import (
	"errors"

	"pocketbook/internal/accounts"
	"pocketbook/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldUsername    = "username"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldFrequency   = "frequency"
	FieldBackend     = "backend"
	FieldPath        = "path"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentExport  = "export"
	ComponentAMQP    = "amqp"
	ComponentMenu    = "menu"
	ComponentBackend = "backend"
	ComponentEvents  = "events"
)

// Operations defines standard operation names
const (
	OpCreateAccount       = "create_account"
	OpLogin               = "login"
	OpLogout              = "logout"
	OpAddIncome           = "add_income"
	OpAddExpense          = "add_expense"
	OpAddRecurringExpense = "add_recurring_expense"
	OpSetBudget           = "set_budget"
	OpViewBalance         = "view_balance"
	OpReport              = "report"
	OpExport              = "export"
	OpLoad                = "load"
	OpSave                = "save"
	OpStartup             = "startup"
	OpShutdown            = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeAuth       = "auth_error"
	ErrorTypeSession    = "session_error"
	ErrorTypeCorrupt    = "corrupt_state_error"
	ErrorTypeInternal   = "internal_error"
)

// ErrorType classifies err into one of the ErrorType constants.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, accounts.ErrEmptyUsername):
		return ErrorTypeValidation
	case errors.Is(err, accounts.ErrDuplicateUsername),
		errors.Is(err, accounts.ErrUnknownUsername),
		errors.Is(err, accounts.ErrInvalidCredential):
		return ErrorTypeAuth
	case errors.Is(err, accounts.ErrNotLoggedIn):
		return ErrorTypeSession
	case errors.Is(err, accounts.ErrCorruptState):
		return ErrorTypeCorrupt
	default:
		return ErrorTypeInternal
	}
}

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUsername(username string) LogFields {
	f[FieldUsername] = username
	return f
}

// WithError adds the error and its classification
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = ErrorType(err)
	}
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(amountCents int64, category string) LogFields {
	f[FieldAmountCents] = amountCents
	f[FieldCategory] = category
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
