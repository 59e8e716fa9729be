package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// RecordValidator checks candidate records declared with `validate` tags. The
// `label` tag, when present, names the field in messages.
type RecordValidator struct {
	validate *playground.Validate
}

// NewRecordValidator creates a validator with label based field names.
func NewRecordValidator() *RecordValidator {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Name
	})
	return &RecordValidator{validate: v}
}

// Validate returns every failed rule of record, in field order.
func (rv *RecordValidator) Validate(record any) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []ValidationError{}}

	err := rv.validate.Struct(record)
	if err == nil {
		return result
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{Message: err.Error()})
		return result
	}

	result.IsValid = false
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
			Value:   fe.Value(),
		})
	}
	return result
}

func message(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
