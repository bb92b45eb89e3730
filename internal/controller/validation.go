package controller

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError reports field-scoped input problems caught before any
// network call. All violated fields are reported together so a form can
// show every error at once.
type ValidationError struct {
	// Fields maps a lowercase field name to its message.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, " ")
}

// Field returns the message for one field, or "" if the field is fine.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// cancelInput is the cancel form payload.
type cancelInput struct {
	Reason string `validate:"notblank"`
}

// rescheduleInput is the reschedule form payload. Every field is
// required; violations are collected, not reported fail-fast.
type rescheduleInput struct {
	Date   string `validate:"notblank"`
	Time   string `validate:"notblank"`
	Reason string `validate:"notblank"`
}

// noteInput is the add-note form payload.
type noteInput struct {
	Content string `validate:"notblank"`
}

// fieldMessages maps struct fields to the user-facing message shown
// inline next to the form field.
var fieldMessages = map[string]string{
	"Date":    "Date is required.",
	"Time":    "Time is required.",
	"Reason":  "Reason is required.",
	"Content": "Note content is required.",
}

// newValidator builds the struct validator with the not-blank rule,
// which rejects whitespace-only strings, not just empty ones.
func newValidator() *validator.Validate {
	v := validator.New()
	// NotBlank cannot fail to register on a fresh validator.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// checkInput validates input and converts validator errors into a
// field-scoped *ValidationError. Returns nil when the input is clean.
func checkInput(v *validator.Validate, input interface{}) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating input: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid.", fe.Field())
		}
		fields[strings.ToLower(fe.Field())] = msg
	}
	return &ValidationError{Fields: fields}
}
