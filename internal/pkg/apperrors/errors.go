package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrBadRequest = errors.New("bad request")
)

// Import errors
var (
	// ErrMissingHeaders is fatal: the whole file is rejected before any row is read.
	ErrMissingHeaders = errors.New("required columns could not be resolved")
	ErrEmptyWorkbook  = errors.New("workbook has no readable sheets")
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrUnknownKind    = errors.New("unknown import kind")

	ErrRowInvalid          = errors.New("row is invalid")
	ErrUnresolvedReference = errors.New("referenced entity could not be resolved")
	ErrSurrogateConflict   = errors.New("generated code collides with another entity")
	ErrGroupFailed         = errors.New("group transaction failed")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")
)

// Catalog errors
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrCodeExists      = errors.New("code already exists")
)

// Assignment errors
var (
	ErrRunInProgress = errors.New("another assignment run is in progress")
)

// Error codes carried by CustomError.Code
const (
	CodeRowInvalid   = "ROW_INVALID"
	CodeUnresolved   = "UNRESOLVED_REFERENCE"
	CodeConflict     = "SURROGATE_CONFLICT"
	CodeGroupFailed  = "GROUP_FAILED"
	// CodeDuplicateRow marks a row superseded by another row of the same sheet
	CodeDuplicateRow = "DUPLICATE_ROW"
)

// MissingHeadersError lists the canonical fields a header row failed to provide.
type MissingHeadersError struct {
	Kind    string
	Missing []string
	// HeaderRow is the 1-based row that came closest to resolving, 0 when the sheet is empty
	HeaderRow int
}

func (e *MissingHeadersError) Error() string {
	return fmt.Sprintf("%s import: missing required columns: %s", e.Kind, strings.Join(e.Missing, ", "))
}

func (e *MissingHeadersError) Unwrap() error {
	return ErrMissingHeaders
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// CodeOf returns the CustomError code carried anywhere in err's chain.
func CodeOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
