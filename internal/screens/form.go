package screens

import (
	"errors"
	"strings"

	"github.com/sevenseas/backoffice/internal/apierr"
)

// FormPhase is the single explicit state of a dialog workflow. One value
// per workflow replaces a pile of independent booleans, so illegal
// combinations (submitting while closed, errored while succeeded) cannot
// be represented.
type FormPhase int

const (
	// FormClosed: no dialog open.
	FormClosed FormPhase = iota
	// FormEditing: dialog open, fields editable, submit enabled.
	FormEditing
	// FormSubmitting: request in flight, submit control disabled.
	FormSubmitting
	// FormSucceeded: the mutation landed; the dialog is about to close.
	FormSucceeded
)

// Form is the dialog-backed form state shared by the create/edit
// workflows: current values, per-field server errors, and a form-level
// banner for non-field errors.
type Form struct {
	phase       FormPhase
	values      map[string]string
	fieldErrors map[string]string
	banner      string
}

// newForm opens a form seeded with the given values (an empty-record
// template for create, the entity's current fields for edit).
func newForm(seed map[string]string) *Form {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Form{
		phase:       FormEditing,
		values:      values,
		fieldErrors: make(map[string]string),
	}
}

// Phase returns the workflow state.
func (f *Form) Phase() FormPhase {
	if f == nil {
		return FormClosed
	}
	return f.phase
}

// Value returns the current value of one field.
func (f *Form) Value(field string) string {
	if f == nil {
		return ""
	}
	return f.values[field]
}

// Set updates a field and clears that field's error, so the message
// disappears as soon as the user edits the offending input.
func (f *Form) Set(field, value string) {
	if f == nil || f.phase != FormEditing {
		return
	}
	f.values[field] = value
	delete(f.fieldErrors, field)
}

// FieldError returns the display message attached to a field, or "".
func (f *Form) FieldError(field string) string {
	if f == nil {
		return ""
	}
	return f.fieldErrors[field]
}

// Banner returns the form-level error message, or "".
func (f *Form) Banner() string {
	if f == nil {
		return ""
	}
	return f.banner
}

// beginSubmit moves to FormSubmitting and clears prior errors. Returns
// false if the form is not in a submittable state.
func (f *Form) beginSubmit() bool {
	if f == nil || f.phase != FormEditing {
		return false
	}
	f.phase = FormSubmitting
	f.fieldErrors = make(map[string]string)
	f.banner = ""
	return true
}

// applyError maps a submission failure back onto the form and re-enables
// the submit control. For a validation failure every field's message
// array is flattened to one display string; any non-field messages go to
// the banner. Returns true when the failure was a validation error (and
// is therefore fully rendered inline); other failures are the caller's to
// surface as a notification.
func (f *Form) applyError(err error) bool {
	f.phase = FormEditing

	var verr *apierr.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for field, msgs := range verr.Fields {
		if field == apierr.NonFieldKey {
			f.banner = strings.Join(msgs, " ")
			continue
		}
		f.fieldErrors[field] = strings.Join(msgs, " ")
	}
	return true
}

// succeed marks the workflow finished.
func (f *Form) succeed() {
	f.phase = FormSucceeded
}

// detailOr returns the server's detail message for err, or fallback.
func detailOr(err error, fallback string) string {
	return apierr.Detail(err, fallback)
}
