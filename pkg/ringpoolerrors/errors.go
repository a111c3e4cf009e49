// Package ringpoolerrors provides structured error handling for ringpool with
// typed categories, key-value context, and stack traces captured at the point
// of creation.
//
// # Overview
//
// The package extends Go's standard error handling with:
//   - Error categorization through ErrorType
//   - Structured context with key-value details
//   - Automatic stack trace capture
//   - Error wrapping with cause preservation
//   - Retryability detection
//
// # Error Types
//
// Construction faults (InvalidCapacity, InvalidConfiguration) abort pool
// creation. Corruption and Leak are fatal defects in caller discipline and
// must never be retried. Timeout and Cancelled are ordinary control-flow
// outcomes that callers are expected to handle.
//
// # Basic Usage
//
//	if !isPowerOfTwo(capacity) {
//	    return ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidCapacity, "capacity must be a power of two").
//	        WithDetail("capacity", capacity)
//	}
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Add details before
// sharing an error across goroutines.
package ringpoolerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error, used to decide between retry,
// escalation, and hard failure.
type ErrorType string

const (
	// ErrorTypeInvalidCapacity indicates a construction-time capacity that is
	// not >= 1 or not a power of two.
	ErrorTypeInvalidCapacity ErrorType = "invalid_capacity"
	// ErrorTypeInvalidConfiguration indicates an inconsistent construction-time
	// configuration, such as blocking mode without a wait strategy.
	ErrorTypeInvalidConfiguration ErrorType = "invalid_configuration"
	// ErrorTypeCorruption indicates an internal bookkeeping mismatch, such as a
	// slot expected empty that is not. Always fatal.
	ErrorTypeCorruption ErrorType = "pool_corruption"
	// ErrorTypeLeak indicates a pool configured to block was starved of
	// returns, or a published slot was consumed with no object present.
	ErrorTypeLeak ErrorType = "pool_leak"
	// ErrorTypeTimeout indicates a bounded wait strategy expired.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeCancelled indicates a sequence barrier was alerted while a
	// claimant waited, typically during external shutdown.
	ErrorTypeCancelled ErrorType = "cancelled"
)

// Error is a structured error with a category, optional cause, key-value
// details, and the call stack captured at creation.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame records one frame of the call stack at error creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As over
// the whole chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Chainable.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the call
// stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a type and message, preserving the
// original as the cause. If the error is already a structured Error, its
// stack trace is preserved. Returns nil for a nil input.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable reports whether the error is an ordinary control-flow outcome
// rather than a fault. Timeouts and cancelled waits qualify; construction
// errors, corruption, and leak faults never do.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeCancelled:
		return true
	case ErrorTypeInvalidCapacity, ErrorTypeInvalidConfiguration,
		ErrorTypeCorruption, ErrorTypeLeak:
		return false
	default:
		return false
	}
}

// IsType checks whether the error chain contains a structured error of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack up to maxFrames deep, skipping
// the given number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
