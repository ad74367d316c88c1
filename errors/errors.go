package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for request validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidFormat creates a new AppError for a malformed document.
func InvalidFormat(what, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("Invalid %s: %s", what, reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"resource": what},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// StorageError creates a new AppError for a failed storage operation.
func StorageError(op, path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("Storage %s failed for %s", op, path),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"operation": op, "path": path}, Cause: cause,
	}
}

// Database creates a new AppError for a failed run history query.
func Database(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDatabase, Message: fmt.Sprintf("Run history %s failed.", op),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"operation": op}, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// --- Pipeline Error Constructors ---

// SchemaNotFound reports that no schema is registered for stage.
func SchemaNotFound(stage string) *AppError {
	return &AppError{
		Code: ErrCodeSchemaNotFound, Message: fmt.Sprintf("No schema registered for stage %s", stage),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"stage": stage},
	}
}

// NoFilesFound reports that dir holds nothing to load.
func NoFilesFound(dir string) *AppError {
	return &AppError{
		Code: ErrCodeNoFilesFound, Message: fmt.Sprintf("No input files found in %s", dir),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"path": dir},
	}
}

// ModelNotFound reports that no saved model exists under name.
func ModelNotFound(name string) *AppError {
	return &AppError{
		Code: ErrCodeModelNotFound, Message: fmt.Sprintf("No model found for %s", name),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"model": name},
	}
}

// MissingColumn reports that a referenced column is absent.
func MissingColumn(column string) *AppError {
	return &AppError{
		Code: ErrCodeMissingColumn, Message: fmt.Sprintf("Column %s not found", column),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"column": column},
	}
}

// NotNumeric reports that column cannot take part in a numeric operation.
func NotNumeric(column string) *AppError {
	return &AppError{
		Code: ErrCodeNotNumeric, Message: fmt.Sprintf("Column %s is not numeric", column),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"column": column},
	}
}

// NoNumericColumns reports that table has no numeric columns.
func NoNumericColumns(table string) *AppError {
	return &AppError{
		Code: ErrCodeNoNumericColumns, Message: fmt.Sprintf("Table %s has no numeric columns", table),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"table": table},
	}
}

// UnsupportedMethod reports an unknown method name for kind.
func UnsupportedMethod(kind, got string, allowed []string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedMethod,
		Message: fmt.Sprintf("Unsupported %s method %q (allowed: %s)",
			kind, got, strings.Join(allowed, ", ")),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"kind": kind, "method": got, "allowed": allowed},
	}
}

// ValidationFailed reports that a stage table failed schema validation.
func ValidationFailed(stage, message string) *AppError {
	return &AppError{
		Code: ErrCodeValidationFailed, Message: fmt.Sprintf("Validation failed for %s: %s", stage, message),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"stage": stage, "reason": message},
	}
}

// TimestampParseError reports that values in column are not timestamps.
func TimestampParseError(column string) *AppError {
	return &AppError{
		Code: ErrCodeTimestampParse, Message: fmt.Sprintf("Column %s holds unparseable timestamps", column),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"column": column},
	}
}
