package validation

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/cemint/cemint-insights/errors"
)

// namePattern matches registry-safe names: they become storage path segments.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Checks accumulates failures from chained checks on values that do not live
// in a tagged struct, such as CLI flags and cross-field request rules.
type Checks struct {
	failed []FieldError
}

// New starts an empty set of checks.
func New() *Checks {
	return &Checks{}
}

func (c *Checks) fail(field, format string, args ...any) *Checks {
	c.failed = append(c.failed, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	return c
}

// Required fails on blank values.
func (c *Checks) Required(field, value string) *Checks {
	if strings.TrimSpace(value) == "" {
		return c.fail(field, "is required")
	}
	return c
}

// OneOf fails when a non-empty value is not allowed.
func (c *Checks) OneOf(field, value string, allowed ...string) *Checks {
	if value == "" || slices.Contains(allowed, value) {
		return c
	}
	return c.fail(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// Name fails when a non-empty value cannot be used as a single path segment.
func (c *Checks) Name(field, value string) *Checks {
	if value == "" || namePattern.MatchString(value) {
		return c
	}
	return c.fail(field, "%q must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", value)
}

// Extension fails when p does not end in one of exts (".csv", ".parquet").
func (c *Checks) Extension(field, p string, exts ...string) *Checks {
	if p == "" || slices.Contains(exts, strings.ToLower(path.Ext(p))) {
		return c
	}
	return c.fail(field, "must end in %s", strings.Join(exts, " or "))
}

// Exclusive fails when both values are set.
func (c *Checks) Exclusive(fieldA, a, fieldB, b string) *Checks {
	if a != "" && b != "" {
		return c.fail(fieldA, "cannot be combined with %s", fieldB)
	}
	return c
}

// Failed returns the failures so far.
func (c *Checks) Failed() []FieldError {
	return c.failed
}

// Err returns nil when every check passed, otherwise an INVALID_INPUT
// AppError listing the failures.
func (c *Checks) Err() error {
	if len(c.failed) == 0 {
		return nil
	}
	return fieldsError(c.failed)
}

func fieldsError(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Field + ": " + f.Message
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fields)
}
