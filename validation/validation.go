// Package validation checks parse results against the text they were produced from.
package validation

import (
	"fmt"
	"strings"
)

// ValidationError is one violated constraint, located by Field (for example "results[1].tokens[0]").
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validator collects validation errors.
type Validator struct {
	errors ValidationErrors
	limit  int
}

// NewValidator creates a Validator that keeps at most limit errors. A limit of zero keeps all.
func NewValidator(limit int) *Validator {
	return &Validator{limit: limit}
}

// AddError records a violation.
func (v *Validator) AddError(field, message string, value any) {
	if v.limit > 0 && len(v.errors) >= v.limit {
		return
	}
	v.errors = append(v.errors, ValidationError{Field: field, Message: message, Value: value})
}

// Require records message for field unless condition holds.
func (v *Validator) Require(condition bool, field, message string, value any) {
	if !condition {
		v.AddError(field, message, value)
	}
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// Error returns nil when nothing was recorded.
func (v *Validator) Error() error {
	if len(v.errors) == 0 {
		return nil
	}
	return v.errors
}
