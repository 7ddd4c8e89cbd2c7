package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatTransientIO ErrorCategory = "transient_io" // Log unreadable, session missing
	ErrCatParse       ErrorCategory = "parse"        // Expected response not found
	ErrCatCooldown    ErrorCategory = "cooldown"     // Restart blocked by a cooldown
	ErrCatRestart     ErrorCategory = "restart"      // Supervisor restart call failed
	ErrCatState       ErrorCategory = "state"        // Persisted state unreadable or locked
	ErrCatValidation  ErrorCategory = "validation"   // Invalid input or configuration
	ErrCatInternal    ErrorCategory = "internal"     // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Predefined error codes
const (
	CodeNotAttached     = "NOT_ATTACHED"
	CodeLogUnavailable  = "LOG_UNAVAILABLE"
	CodeNoPlayerCount   = "NO_PLAYER_COUNT"
	CodeCooldownActive  = "COOLDOWN_ACTIVE"
	CodeRestartFailed   = "RESTART_FAILED"
	CodeStateCorrupted  = "STATE_CORRUPTED"
	CodeLockHeld        = "LOCK_HELD"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeUnknownScope    = "UNKNOWN_SCOPE"
	CodeCommandFailed   = "COMMAND_FAILED"
	CodePanicRecovered  = "PANIC_RECOVERED"
	CodeUnknownTrigger  = "UNKNOWN_TRIGGER"
	CodeUnsupportedMode = "UNSUPPORTED_MULTIPLEXER"
)

// Sentinel errors usable with errors.Is. DomainError.Is compares
// category and code, so freshly built errors match these.
var (
	ErrNotAttached    = &DomainError{Category: ErrCatTransientIO, Code: CodeNotAttached}
	ErrLogUnavailable = &DomainError{Category: ErrCatTransientIO, Code: CodeLogUnavailable}
	ErrNoPlayerCount  = &DomainError{Category: ErrCatParse, Code: CodeNoPlayerCount}
	ErrRestartFailed  = &DomainError{Category: ErrCatRestart, Code: CodeRestartFailed}
	ErrLockHeld       = &DomainError{Category: ErrCatState, Code: CodeLockHeld}
)

// ErrTransient creates a transient I/O error. The operation is skipped and
// retried on the next cadence.
func ErrTransient(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTransientIO,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrParse creates a parse-miss error.
func ErrParse(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatParse,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrCooldown creates a cooldown-block error carrying the remaining wait.
func ErrCooldown(scope Scope, remaining time.Duration) *DomainError {
	return &DomainError{
		Category:  ErrCatCooldown,
		Code:      CodeCooldownActive,
		Message:   fmt.Sprintf("%s cooldown active for another %s", scope, remaining.Round(time.Second)),
		Retryable: false,
		Details: map[string]interface{}{
			"scope":     string(scope),
			"remaining": remaining,
		},
	}
}

// ErrRestart creates a restart-call failure. Restart failures are never retried.
func ErrRestart(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatRestart,
		Code:      CodeRestartFailed,
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrInternal creates an internal error.
func ErrInternal(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInternal,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}
