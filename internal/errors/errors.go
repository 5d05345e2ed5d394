// Package errors defines the application error taxonomy and its handler.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an error code, operator message, and user-facing message.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewConfigError marks a missing or invalid configuration value. Fatal: the
// process cannot start a cycle without credentials.
func NewConfigError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: "",
		Severity:    SeverityCritical,
		Retryable:   false,
	}
}

// NewTransportError marks a failed call to the messaging provider. Recovered
// locally: the cycle ends early and the next scheduled cycle retries.
func NewTransportError(method string, cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("telegram transport error: %s", method),
		UserMessage: "El servicio no está disponible en este momento",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateStoreError marks a failure reading or writing the poll state.
func NewStateStoreError(op string, cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("poll state %s failed: %s", op, underlying),
		UserMessage: "",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewSinkError marks a failed ledger append.
func NewSinkError(cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("ledger sink error: %s", underlying),
		UserMessage: "No se pudo guardar el registro, inténtalo de nuevo",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}
