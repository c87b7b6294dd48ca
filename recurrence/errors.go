package recurrence

import "fmt"

// ErrorType classifies recurrence errors.
type ErrorType string

const (
	ErrTypeMalformed          ErrorType = "malformed_recurrence_string"
	ErrTypeValueConstraint    ErrorType = "recurring_value_constraint"
	ErrTypeIncomplete         ErrorType = "incomplete_recurrence"
	ErrTypePosition           ErrorType = "cannot_calculate_position"
	ErrTypeFirstOccurrence    ErrorType = "cannot_calculate_first_occurrence"
	ErrTypeForeignException   ErrorType = "foreign_exception_date"
	ErrTypeConflict           ErrorType = "conflict"
	ErrTypeInvalidTimeZone    ErrorType = "invalid_timezone"
	ErrTypeBudgetExhausted    ErrorType = "operation_budget_exhausted"
	ErrTypeUnsupportedPattern ErrorType = "unsupported_pattern"
)

// Error is returned by every operation of this package.
type Error struct {
	Type    ErrorType
	Message string
	// Field names the offending rule field, if any.
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Type)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same type, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Field == "" || t.Field == e.Field)
}

var (
	ErrMalformed          = &Error{Type: ErrTypeMalformed}
	ErrValueConstraint    = &Error{Type: ErrTypeValueConstraint}
	ErrIncomplete         = &Error{Type: ErrTypeIncomplete}
	ErrCannotPosition     = &Error{Type: ErrTypePosition}
	ErrCannotFirst        = &Error{Type: ErrTypeFirstOccurrence}
	ErrForeignException   = &Error{Type: ErrTypeForeignException}
	ErrConflict           = &Error{Type: ErrTypeConflict}
	ErrInvalidTimeZone    = &Error{Type: ErrTypeInvalidTimeZone}
	ErrBudgetExhausted    = &Error{Type: ErrTypeBudgetExhausted}
	ErrUnsupportedPattern = &Error{Type: ErrTypeUnsupportedPattern}
)

// Incomplete fields.
const (
	FieldInterval   = "interval"
	FieldDays       = "days"
	FieldDayInMonth = "day_in_month"
	FieldMonth      = "month"
	FieldType       = "type"
	FieldTimeZone   = "timezone"
)

func incomplete(field, format string, args ...any) error {
	return &Error{Type: ErrTypeIncomplete, Field: field, Message: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...any) error {
	return &Error{Type: ErrTypeMalformed, Message: fmt.Sprintf(format, args...)}
}
