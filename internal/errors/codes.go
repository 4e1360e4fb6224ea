// Package errors defines the error taxonomy shared by the routing pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
)

// ErrorCode represents a specific failure class.
type ErrorCode string

const (
	// ErrCodeClassificationFailure indicates the completion provider could not classify a message.
	// Recovered: the message routes to the fallback intent.
	ErrCodeClassificationFailure ErrorCode = "CLASSIFICATION_FAILURE"
	// ErrCodeExtractionFailure indicates a required field could not be extracted.
	// Recovered: the handler returns an explanatory text-only result.
	ErrCodeExtractionFailure ErrorCode = "EXTRACTION_FAILURE"
	// ErrCodeProviderUnavailable indicates an external capability errored.
	// Recovered: the handler returns a degraded result.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeConfiguration indicates a startup configuration problem. Fatal.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeTimeout indicates the operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// AIError represents a structured error for routing operations.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value any) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// LogValue renders the error as a group so slog output carries the code and the
// attached context, not only the message.
func (e *AIError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxAttrs := make([]any, 0, len(keys))
		for _, k := range keys {
			ctxAttrs = append(ctxAttrs, slog.Any(k, e.Context[k]))
		}
		attrs = append(attrs, slog.Group("context", ctxAttrs...))
	}
	return slog.GroupValue(attrs...)
}

// ClassificationFailure creates a classification failure error.
func ClassificationFailure(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeClassificationFailure, Message: msg, Cause: cause}
}

// ExtractionFailure creates an extraction failure error.
func ExtractionFailure(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeExtractionFailure, Message: msg, Cause: cause}
}

// ProviderUnavailable creates a provider unavailable error.
func ProviderUnavailable(provider string, cause error) *AIError {
	return &AIError{
		Code:    ErrCodeProviderUnavailable,
		Message: fmt.Sprintf("%s provider unavailable", provider),
		Cause:   cause,
	}
}

// Configuration creates a configuration error.
func Configuration(msg string) *AIError {
	return &AIError{Code: ErrCodeConfiguration, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AIError {
	return &AIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if err, or any error it wraps, carries code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns defaultCode if the chain holds no AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}
