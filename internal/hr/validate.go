package hr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var employeeIDPattern = regexp.MustCompile(`^(EMP|ADM)\d{3}$`)

// ValidEmployeeID reports whether id is a structured employee identifier.
func ValidEmployeeID(id string) bool {
	return employeeIDPattern.MatchString(id)
}

// NewValidator returns a validator that also understands the employee_id tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("employee_id", func(fl validator.FieldLevel) bool {
		return ValidEmployeeID(fl.Field().String())
	})
	return v
}

// Validate runs struct validation and folds the field errors into one ErrValidation.
func Validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return fmt.Sprintf("missing required field: %s", fe.Field())
	case "employee_id":
		return "employee ID must be in format EMP### or ADM###"
	case "gte":
		return fmt.Sprintf("%s cannot be negative", fe.Field())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
