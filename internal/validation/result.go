// Package validation holds the stateless field checks used by the booking
// and registration wizards. Failures are returned as data, never as errors.
package validation

import (
	"fmt"
	"strings"
)

// Code classifies a field failure.
type Code string

const (
	MissingField     Code = "missing_field"
	InvalidFormat    Code = "invalid_format"
	Underage         Code = "underage"
	PasswordMismatch Code = "password_mismatch"
)

// FieldError attributes one failure to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of one or more checks. Errors is empty iff OK.
type Result struct {
	OK     bool         `json:"ok"`
	Errors []FieldError `json:"errors"`
}

// Valid returns a passing result.
func Valid() Result {
	return Result{OK: true, Errors: []FieldError{}}
}

// Invalid returns a failing result with a single error.
func Invalid(field string, code Code, message string) Result {
	return Result{
		OK:     false,
		Errors: []FieldError{{Field: field, Code: code, Message: message}},
	}
}

// Merge folds other into r, preserving error order.
func (r *Result) Merge(other Result) {
	if r.Errors == nil {
		r.Errors = []FieldError{}
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.OK = len(r.Errors) == 0
}

// Add appends a failure to r.
func (r *Result) Add(field string, code Code, message string) {
	r.Merge(Invalid(field, code, message))
}

// Has reports whether any error is attributed to field.
func (r Result) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Codes returns the codes attributed to field, in order.
func (r Result) Codes(field string) []Code {
	var out []Code
	for _, e := range r.Errors {
		if e.Field == field {
			out = append(out, e.Code)
		}
	}
	return out
}

// Collect merges results in order into one.
func Collect(results ...Result) Result {
	out := Valid()
	for _, r := range results {
		out.Merge(r)
	}
	return out
}

// String renders a failing result for logs; it is empty when OK.
func (r Result) String() string {
	if r.OK {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}
