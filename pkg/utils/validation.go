package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "chains/pkg/errors"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		fields := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
			fields = append(fields, strings.ToLower(e.Field()))
		}
		return pkgerrors.NewValidationError(strings.Join(messages, "; ")).
			WithDetail("fields", fields)
	}
	return pkgerrors.NewValidationError(err.Error()).WithCause(err)
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "gte":
		return field + " must be greater than or equal to " + e.Param()
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "alphanum", "lowercase":
		return field + " must be " + e.Tag()
	case "dive":
		return field + " contains invalid values"
	default:
		return field + " is invalid"
	}
}
