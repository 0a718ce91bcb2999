// package validation provides helper functions for request data validation.
// It uses the go-playground/validator library and includes custom validation rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// init registers custom validation rules with the validator instance.
func init() {
	// Messages refer to fields by their json names so they match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	rules := map[string]validator.Func{
		"weekday": func(fl validator.FieldLevel) bool {
			return domain.Weekday(fl.Field().String()).Valid()
		},
		"time_of_day": func(fl validator.FieldLevel) bool {
			if fl.Field().String() == "" {
				return true
			}

			_, err := domain.ParseTimeOfDay(fl.Field().String())
			return err == nil
		},
	}

	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			// A rule that fails to register is a startup bug.
			panic(fmt.Sprintf("failed to register custom validation %q: %v", tag, err))
		}
	}
}

// ValidationError is a custom error type that holds a slice of validation error messages.
type ValidationError struct {
	Errors []string
}

// Error returns a single string concatenating all validation error messages.
func (v *ValidationError) Error() string {
	return strings.Join(v.Errors, ", ")
}

func (v *ValidationError) Is(target error) bool {
	return target == apperrors.ErrValidation
}

// ValidateStruct performs validation on a given struct based on its validation tags.
// If validation fails, it returns a *ValidationError with user-friendly messages.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	validationErrors := make([]string, 0, len(fieldErrors))

	for _, err := range fieldErrors {
		var message string

		switch err.Tag() {
		case "uuid":
			message = fmt.Sprintf("field '%s' must be a UUID", fieldName(err.Field()))
		case "weekday":
			message = fmt.Sprintf("field '%s' must be a weekday name (monday..sunday)", fieldName(err.Field()))
		case "time_of_day":
			message = fmt.Sprintf("field '%s' must be a time of day in HH:MM format", fieldName(err.Field()))
		case "gtfield":
			message = fmt.Sprintf("field '%s' must be after '%s'", fieldName(err.Field()), fieldName(err.Param()))
		default:
			// Default message for other standard validation tags like 'required', 'min', 'max', etc.
			message = fmt.Sprintf(
				"field '%s' failed on the '%s' tag",
				fieldName(err.Field()),
				err.Tag(),
			)
		}

		validationErrors = append(validationErrors, message)
	}

	return &ValidationError{Errors: validationErrors}
}

// fieldName turns Go field names of service inputs into the snake_case
// used by request bodies. Names that are already snake_case pass through.
func fieldName(name string) string {
	var b strings.Builder

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}

			r = unicode.ToLower(r)
		}

		b.WriteRune(r)
	}

	return b.String()
}

// Errorf builds a single-message ValidationError for rules that cannot be
// expressed as struct tags.
func Errorf(format string, args ...any) error {
	return &ValidationError{Errors: []string{fmt.Sprintf(format, args...)}}
}
