package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so adapters can choose the user-facing treatment.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindReference  ErrorKind = "reference"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindGuard      ErrorKind = "guard"
	KindIntegrity  ErrorKind = "integrity"
)

// Error codes exposed to callers.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeUnknownReference       = "UNKNOWN_REFERENCE"
	CodeNotFound               = "NOT_FOUND"
	CodeConflict               = "CONFLICT"
	CodeDuplicateParty         = "DUPLICATE_PARTY"
	CodeDependentInvoiceExists = "DEPENDENT_INVOICE_EXISTS"
	CodeDependentCostingExists = "DEPENDENT_COSTING_EXISTS"
	CodeInvoiceHasPayments     = "INVOICE_HAS_PAYMENTS"
	CodeIntegrityViolation     = "INTEGRITY_VIOLATION"
)

// Error is the typed error returned by core services.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller should re-fetch and retry once.
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict && e.Code == CodeConflict
}

// ValidationError creates a validation error. fields may be nil.
func ValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Fields: fields}
}

// ReferenceError reports a lookup code that does not resolve against reference data.
func ReferenceError(kind RefKind, code string) *Error {
	return &Error{
		Kind:    KindReference,
		Code:    CodeUnknownReference,
		Message: fmt.Sprintf("unknown %s %q", kind, code),
		Fields:  map[string]string{"kind": string(kind), "code": code},
	}
}

// NotFoundError reports a missing record.
func NotFoundError(resource string, id int) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %d not found", resource, id),
	}
}

// ConflictError reports a concurrent-modification conflict.
func ConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Code: CodeConflict, Message: message}
}

// GuardError wraps a denied GuardResult so delete operations can return it as an error.
func GuardError(code string, res GuardResult) *Error {
	return &Error{Kind: KindGuard, Code: code, Message: res.Reason}
}

// IntegrityError reports a partial write that was rolled back.
func IntegrityError(message string, err error) *Error {
	return &Error{Kind: KindIntegrity, Code: CodeIntegrityViolation, Message: message, Err: err}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries a core error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
