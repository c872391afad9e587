package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeExternal   ErrorType = "external_api"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeTimeout    ErrorType = "timeout"
)

// AppError represents an application error with additional context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Internal error
	Context  map[string]interface{}
	Source   string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

// handleAppError handles AppError instances
func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation:
		h.logger.WarnContext(ctx, "Validation error", err.LogFields()...)
	case ErrorTypePermission:
		h.logger.WarnContext(ctx, "Permission error", err.LogFields()...)
	case ErrorTypeRateLimit:
		h.logger.WarnContext(ctx, "Rate limit error", err.LogFields()...)
	case ErrorTypeDatabase, ErrorTypeExternal, ErrorTypeInternal, ErrorTypeTimeout:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// handleGenericError handles generic errors
func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// Error codes shared across packages
const (
	CodeValidation         = "VALIDATION"
	CodeDatabase           = "DB_ERROR"
	CodeRateLimit          = "RATE_LIMIT"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeEntryNotFound      = "ENTRY_NOT_FOUND"
	CodeNoAPIKey           = "NO_API_KEY"
	CodeInvalidAPIKey      = "INVALID_API_KEY"
	CodeServerError        = "SERVER_ERROR"
	CodeParseError         = "PARSE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeNetworkUnavailable = "NETWORK_UNAVAILABLE"
	CodeUnknown            = "UNKNOWN"
)

// Predefined errors. They are only meant for errors.Is comparisons.
var (
	ErrInvalidAmount     = New(ErrorTypeValidation, CodeInvalidAmount, "Amount must be a positive number of grams")
	ErrEntryNotFound     = New(ErrorTypeDatabase, CodeEntryNotFound, "Entry not found")
	ErrNoAPIKey          = New(ErrorTypeValidation, CodeNoAPIKey, "API Key Missing")
	ErrDatabaseError     = New(ErrorTypeDatabase, CodeDatabase, "Database operation failed")
	ErrRateLimitExceeded = New(ErrorTypeRateLimit, CodeRateLimit, "Rate limit exceeded")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, CodeValidation, message)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, CodeDatabase, "Database operation failed")
}

func NewRateLimitError(message string) *AppError {
	return New(ErrorTypeRateLimit, CodeRateLimit, message)
}

// NewExternalAPIError wraps a failed call to a third party service under one of the lookup codes.
func NewExternalAPIError(err error, code, message string) *AppError {
	return Wrap(err, ErrorTypeExternal, code, message)
}

func NewTimeoutError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeTimeout, CodeTimeout, message)
}

func NewInvalidAPIKeyError(err error) *AppError {
	return Wrap(err, ErrorTypePermission, CodeInvalidAPIKey, "Invalid API Key")
}

func NewInvalidAmountError(amount *float64) *AppError {
	err := New(ErrorTypeValidation, CodeInvalidAmount, "Amount must be a positive number of grams")
	if amount != nil {
		err.WithContext("amount", *amount)
	}
	return err
}

func NewEntryNotFoundError(err error, id string) *AppError {
	return Wrap(err, ErrorTypeDatabase, CodeEntryNotFound, "Entry not found").
		WithContext("entry_id", id)
}

func NewNoAPIKeyError() *AppError {
	return New(ErrorTypeValidation, CodeNoAPIKey, "API Key Missing")
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
