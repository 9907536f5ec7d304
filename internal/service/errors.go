package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError rejects input before it reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// checkStruct runs the validate tags of v and reports the first failure.
func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	var fieldErrs validator.ValidationErrors
	if err == nil || !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalid(field, field+" is required")
	case "max":
		return invalid(field, fmt.Sprintf("%s is longer than %s characters", field, fe.Param()))
	case "len", "hexcolor":
		return invalid(field, fmt.Sprintf("expected #RRGGBB, got %v", fe.Value()))
	default:
		return invalid(field, "failed "+fe.Tag())
	}
}
