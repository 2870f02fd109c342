package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kbukum/flowkit/errors"
)

var (
	// processNamePattern matches names usable as work-dir path components.
	processNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	// shellNamePattern matches names usable as shell variable assignments.
	shellNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors across a chain of checks, so the
// caller learns everything wrong with a definition at once instead of
// fixing one field per attempt.
type Validator struct {
	errors []FieldError
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError carrying every field error, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{
		"fields": v.errors,
	}
	return appErr
}

// Required checks that a string is non-blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// ProcessName checks that a non-empty value is safe as a work-directory
// path component. Emptiness is Required's concern.
func (v *Validator) ProcessName(field, value string) *Validator {
	if value == "" {
		return v
	}
	if !processNamePattern.MatchString(value) {
		v.AddError(field, "must start with a letter or digit and contain only letters, digits, '.', '_' or '-'")
	}
	return v
}

// ShellName checks that a non-empty value is a legal shell variable name,
// so it can be rendered as an assignment in a task script.
func (v *Validator) ShellName(field, value string) *Validator {
	if value == "" {
		return v
	}
	if !shellNamePattern.MatchString(value) {
		v.AddError(field, "must be a valid shell variable name")
	}
	return v
}

// NonNegativeDuration checks that a duration is zero or positive.
func (v *Validator) NonNegativeDuration(field string, d time.Duration) *Validator {
	if d < 0 {
		v.AddError(field, "must not be negative")
	}
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
