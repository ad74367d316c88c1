package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Resource errors
const (
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeSchemaNotFound indicates no schema is registered for a stage.
	ErrCodeSchemaNotFound ErrorCode = "SCHEMA_NOT_FOUND"
	// ErrCodeNoFilesFound indicates a directory holds no loadable input.
	ErrCodeNoFilesFound ErrorCode = "NO_FILES_FOUND"
	// ErrCodeModelNotFound indicates the model registry has no saved model by that name.
	ErrCodeModelNotFound ErrorCode = "MODEL_NOT_FOUND"
)

// Input and data errors
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingColumn indicates a transform referenced a column the table lacks.
	ErrCodeMissingColumn ErrorCode = "MISSING_COLUMN"
	// ErrCodeNotNumeric indicates a numeric operation was asked of a non-numeric column.
	ErrCodeNotNumeric ErrorCode = "NOT_NUMERIC"
	// ErrCodeNoNumericColumns indicates a numeric transform found nothing to work on.
	ErrCodeNoNumericColumns ErrorCode = "NO_NUMERIC_COLUMNS"
	// ErrCodeUnsupportedMethod indicates an unknown normalization or fill method.
	ErrCodeUnsupportedMethod ErrorCode = "UNSUPPORTED_METHOD"
	// ErrCodeValidationFailed indicates a table does not conform to its stage schema.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeTimestampParse indicates timestamp values could not be parsed.
	ErrCodeTimestampParse ErrorCode = "TIMESTAMP_PARSE_ERROR"
	// ErrCodeInvalidFormat indicates a document or file is malformed.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Internal errors
const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorage  ErrorCode = "STORAGE_ERROR"
	// ErrCodeDatabase indicates the run history database failed.
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
	ErrCodeStorage:            true,
	ErrCodeDatabase:           true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
