// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *FieldError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string {
	return e.tag
}

// Param returns the parameter of the failed tag (e.g. "1" for "lte=1").
func (e *FieldError) Param() string {
	return e.param
}

// Value returns the value that failed validation.
func (e *FieldError) Value() interface{} {
	return e.value
}

// Error returns a human-readable message for the failure.
func (e *FieldError) Error() string {
	return e.message
}

// ValidationError aggregates the field failures of one ValidateStruct
// call. It implements error.
type ValidationError struct {
	fields []FieldError
}

// Fields returns the individual field failures.
func (ve *ValidationError) Fields() []FieldError {
	return ve.fields
}

// Error implements the error interface, joining all field messages.
func (ve *ValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(ve.fields))
	for i, fe := range ve.fields {
		messages[i] = fe.message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance. The instance is
// initialized on first use and safe for concurrent use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// ValidateStruct validates a struct against its `validate` tags. Nested
// structs are validated recursively; slices need an explicit `dive` tag.
// Returns nil on success, a *ValidationError describing every failed
// field otherwise.
func ValidateStruct(s interface{}) *ValidationError {
	v := GetValidator()

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// InvalidValidationError: the caller passed a non-struct.
		return &ValidationError{
			fields: []FieldError{
				{field: "unknown", tag: "unknown", message: err.Error()},
			},
		}
	}

	fieldErrors := make([]FieldError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = FieldError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &ValidationError{fields: fieldErrors}
}

// errorMessageTemplates maps parameterless validation tags to message
// templates taking the field name.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
}

// errorMessageWithParam maps validation tags to templates taking the
// field name and the tag parameter.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

// translateError converts a validator.FieldError to a human-readable
// message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}

	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max, which read as lengths for strings and
// slices but as bounds for numbers.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	kind := fe.Kind().String()
	isLength := kind == "string" || kind == "slice" || kind == "map"

	switch tag {
	case "min":
		if isLength {
			return fmt.Sprintf("%s must have at least %s elements", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isLength {
			return fmt.Sprintf("%s must have at most %s elements", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
