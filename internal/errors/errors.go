// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData   = errors.New("insufficient candle data")
	ErrNoValidSetup       = errors.New("no valid trade setup")
	ErrPriceUnavailable   = errors.New("live price unavailable")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeAlreadyClosed = errors.New("trade already closed")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDatabaseError      = errors.New("database error")
)

// InsufficientDataError reports that a candle series is too short for
// structure analysis. It wraps ErrInsufficientData.
type InsufficientDataError struct {
	Symbol string
	Need   int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle data for %s: need %d, got %d", e.Symbol, e.Need, e.Got)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(symbol string, need, got int) *InsufficientDataError {
	return &InsufficientDataError{Symbol: symbol, Need: need, Got: got}
}

// SetupError reports why no valid setup could be derived from a
// structure snapshot. It wraps ErrNoValidSetup.
type SetupError struct {
	Symbol string
	Reason string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("no valid setup for %s: %s", e.Symbol, e.Reason)
}

func (e *SetupError) Unwrap() error {
	return ErrNoValidSetup
}

// NewSetupError creates a new SetupError.
func NewSetupError(symbol, reason string) *SetupError {
	return &SetupError{Symbol: symbol, Reason: reason}
}

// PriceError reports a failed live-price lookup. It wraps
// ErrPriceUnavailable.
type PriceError struct {
	Symbol string
	Err    error
}

func (e *PriceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("price unavailable for %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("price unavailable for %s", e.Symbol)
}

func (e *PriceError) Unwrap() error {
	return ErrPriceUnavailable
}

// NewPriceError creates a new PriceError.
func NewPriceError(symbol string, err error) *PriceError {
	return &PriceError{Symbol: symbol, Err: err}
}

// DataError represents a market-data error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{DataType: dataType, Symbol: symbol, Message: message, Err: err}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
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
