package validation

import (
	"strings"
	"testing"

	"github.com/cemint/cemint-insights/errors"
)

func TestChecksRequiredAndOneOf(t *testing.T) {
	if err := New().Required("stage", "kiln").OneOf("method", "minmax", "minmax", "standard").Err(); err != nil {
		t.Errorf("expected no errors, got %v", err)
	}
	if len(New().Required("stage", "   ").Failed()) != 1 {
		t.Error("expected whitespace-only value to fail")
	}
	if len(New().OneOf("method", "", "minmax").Failed()) != 0 {
		t.Error("expected empty value to be skipped")
	}
	c := New().OneOf("method", "robust", "minmax", "standard")
	if len(c.Failed()) != 1 || c.Failed()[0].Message != "must be one of: minmax, standard" {
		t.Errorf("unexpected failures %+v", c.Failed())
	}
}

func TestChecksName(t *testing.T) {
	for _, ok := range []string{"kiln_efficiency", "spc-v2", "Mill.1", ""} {
		if err := New().Name("name", ok).Err(); err != nil {
			t.Errorf("expected %q to pass, got %v", ok, err)
		}
	}
	for _, bad := range []string{"../etc", "a/b", "_hidden", "two words"} {
		if err := New().Name("name", bad).Err(); err == nil {
			t.Errorf("expected %q to fail", bad)
		}
	}
}

func TestChecksExtensionAndExclusive(t *testing.T) {
	if err := New().Extension("data", "processed/x/kiln_processed.PARQUET", ".csv", ".parquet").Err(); err != nil {
		t.Errorf("expected parquet to pass, got %v", err)
	}
	c := New().Extension("data", "kiln.xlsx", ".csv", ".parquet")
	if len(c.Failed()) != 1 || c.Failed()[0].Message != "must end in .csv or .parquet" {
		t.Errorf("unexpected failures %+v", c.Failed())
	}
	if err := New().Exclusive("scenario", "peak", "input_dir", "").Err(); err != nil {
		t.Errorf("expected single value to pass, got %v", err)
	}
	if err := New().Exclusive("scenario", "peak", "input_dir", "raw/x").Err(); err == nil {
		t.Error("expected both values to fail")
	}
}

func TestChecksErr(t *testing.T) {
	err := New().Required("stage", "").Name("name", "a/b").Err()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.HasPrefix(appErr.Message, "stage: is required; name: ") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("unexpected details %v", appErr.Details)
	}
}

type predictRequest struct {
	ModelName string             `json:"model_name" validate:"required"`
	Features  map[string]float64 `json:"features" validate:"required,min=1"`
}

type storageSection struct {
	Provider string `mapstructure:"provider" validate:"oneof=local s3 gcs"`
}

type appSection struct {
	Storage   storageSection `mapstructure:"storage"`
	Threshold float64        `mapstructure:"threshold" validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	if err := Validate(predictRequest{ModelName: "power", Features: map[string]float64{"x": 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Validate(predictRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if !strings.Contains(appErr.Message, "model_name: is required") {
		t.Errorf("expected json field name in message, got %q", appErr.Message)
	}
}

func TestValidateStructNested(t *testing.T) {
	err := Validate(appSection{Storage: storageSection{Provider: "ftp"}, Threshold: 0})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.(*errors.AppError).Message
	if !strings.Contains(msg, "storage.provider: must be one of: local s3 gcs") {
		t.Errorf("expected nested path, got %q", msg)
	}
	if !strings.Contains(msg, "threshold: must be greater than 0") {
		t.Errorf("expected threshold error, got %q", msg)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("ModelName"); got != "model_name" {
		t.Errorf("expected model_name, got %q", got)
	}
}
