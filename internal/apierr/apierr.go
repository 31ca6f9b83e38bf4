// Package apierr defines the structured failures surfaced by the HTTP
// client adapter. Callers discriminate with errors.As: a *ValidationError
// maps onto form fields, a *StatusError carries the server detail message,
// and anything else is a transport-level failure.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is a non-2xx response that is not a field-validation failure.
// Detail holds the server-provided message when the body contained one.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// IsUnauthorized reports whether the failure is 401-class.
func (e *StatusError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether the failure is 403-class.
func (e *StatusError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// ValidationError is a 400-class response whose body is a map of field
// names to one or more messages, as produced by the backend's serializers.
// Messages for errors not tied to a field are keyed "non_field_errors".
type ValidationError struct {
	StatusCode int
	Fields     map[string][]string
}

// NonFieldKey is the map key the backend uses for form-level errors.
const NonFieldKey = "non_field_errors"

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d fields)", len(e.Fields))
}

// FieldMessage returns the display string for one field: the server's
// message array joined with single spaces, or "" if the field is clean.
func (e *ValidationError) FieldMessage(field string) string {
	return strings.Join(e.Fields[field], " ")
}

// NonFieldMessage returns the joined form-level error messages, if any.
func (e *ValidationError) NonFieldMessage() string {
	return e.FieldMessage(NonFieldKey)
}

// Detail extracts the server detail message from err when it is a
// StatusError with one; otherwise it returns fallback. Screens use this to
// build notification text without caring about the failure class.
func Detail(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}
