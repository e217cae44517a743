// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrInputValidation = errors.New("input validation failed")
	ErrMissingColumn   = errors.New("missing required column")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrDataNotFound    = errors.New("data not found")
	ErrMisaligned      = errors.New("series are not row-aligned")
	ErrOutOfOrder      = errors.New("ledger rows applied out of order")
	ErrDatabaseError   = errors.New("database error")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets errors.Is match ErrInputValidation.
func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a problem with an input dataset.
type DataError struct {
	Source  string
	Row     int
	Column  string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	loc := e.Source
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", loc, e.Row)
	}
	if e.Column != "" {
		loc = fmt.Sprintf("%s column %q", loc, e.Column)
	}
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", loc, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(source string, row int, column, message string, err error) *DataError {
	return &DataError{
		Source:  source,
		Row:     row,
		Column:  column,
		Message: message,
		Err:     err,
	}
}

// LedgerError represents an invalid ledger mutation.
type LedgerError struct {
	Ledger string
	Index  int
	Date   time.Time
	Err    error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger error [%s] row %d (%s): %v", e.Ledger, e.Index, e.Date.Format("2006-01-02"), e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError.
func NewLedgerError(ledger string, index int, date time.Time, err error) *LedgerError {
	return &LedgerError{
		Ledger: ledger,
		Index:  index,
		Date:   date,
		Err:    err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
