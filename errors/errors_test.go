package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("run", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	err = NotFound("run", "2024-01-01_00-00-00")
	if err.Details["id"] != "2024-01-01_00-00-00" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := StorageError("upload", "out/a.csv", nil).WithCause(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := MissingColumn("kwh").WithDetails(map[string]any{"table": "kiln"}).WithDetail("stage", "stage2")
	if err.Details["column"] != "kwh" || err.Details["table"] != "kiln" || err.Details["stage"] != "stage2" {
		t.Errorf("unexpected details %v", err.Details)
	}

	bare := New(ErrCodeInternal, "x", 500).WithDetail("k", "v")
	if bare.Details["k"] != "v" {
		t.Errorf("expected detail on nil map, got %v", bare.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := SchemaNotFound("stage9")
	want := "SCHEMA_NOT_FOUND: No schema registered for stage stage9"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"SchemaNotFound", SchemaNotFound("s"), ErrCodeSchemaNotFound, http.StatusNotFound},
		{"NoFilesFound", NoFilesFound("/d"), ErrCodeNoFilesFound, http.StatusNotFound},
		{"ModelNotFound", ModelNotFound("m"), ErrCodeModelNotFound, http.StatusNotFound},
		{"MissingColumn", MissingColumn("c"), ErrCodeMissingColumn, http.StatusBadRequest},
		{"NotNumeric", NotNumeric("c"), ErrCodeNotNumeric, http.StatusBadRequest},
		{"NoNumericColumns", NoNumericColumns("t"), ErrCodeNoNumericColumns, http.StatusBadRequest},
		{"UnsupportedMethod", UnsupportedMethod("normalize", "robust", []string{"minmax", "standard"}), ErrCodeUnsupportedMethod, http.StatusBadRequest},
		{"ValidationFailed", ValidationFailed("s", "Missing columns: {'b'}"), ErrCodeValidationFailed, http.StatusUnprocessableEntity},
		{"TimestampParseError", TimestampParseError("timestamp"), ErrCodeTimestampParse, http.StatusBadRequest},
		{"InvalidFormat", InvalidFormat("schema", "bad json"), ErrCodeInvalidFormat, http.StatusBadRequest},
		{"InvalidInput", InvalidInput("stage", "empty"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"Validation", Validation("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError},
		{"StorageError", StorageError("list", "/x", nil), ErrCodeStorage, http.StatusInternalServerError},
		{"Database", Database("list", nil), ErrCodeDatabase, http.StatusServiceUnavailable},
		{"ExternalServiceError", ExternalServiceError("kafka", nil), ErrCodeExternalService, http.StatusBadGateway},
		{"ServiceUnavailable", ServiceUnavailable("api"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"Timeout", Timeout("predict"), ErrCodeTimeout, http.StatusGatewayTimeout},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != IsRetryableCode(tc.code) {
				t.Errorf("retryable mismatch for %s", tc.code)
			}
		})
	}
}

func TestUnsupportedMethod_Message(t *testing.T) {
	err := UnsupportedMethod("normalize", "robust", []string{"minmax", "standard"})
	if !strings.Contains(err.Message, `"robust"`) || !strings.Contains(err.Message, "minmax, standard") {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	resp := MissingColumn("kwh").ToResponse()
	if resp.Error != "Column kwh not found" {
		t.Errorf("unexpected error text %q", resp.Error)
	}
	if resp.Code != ErrCodeMissingColumn {
		t.Errorf("unexpected code %s", resp.Code)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("load stage: %w", NoFilesFound("/in"))
	if !IsAppError(wrapped) {
		t.Fatal("expected wrapped AppError to be detected")
	}
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeNoFilesFound {
		t.Errorf("expected NO_FILES_FOUND, got %v", appErr)
	}
	if !HasCode(wrapped, ErrCodeNoFilesFound) {
		t.Error("expected HasCode to match")
	}
	if HasCode(wrapped, ErrCodeSchemaNotFound) {
		t.Error("expected HasCode to reject other codes")
	}
	if HasCode(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("expected HasCode false for plain errors")
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("expected plain error not to convert")
	}
}
