package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator reads the same `binding` tags gin uses, so forms are checked
// by one rule set at the HTTP boundary and inside services.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	UseJSONFieldNames(v)
	return v
}

func validateStruct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		return FromValidation(err)
	}
	return nil
}

// FromValidation converts validator output into a *ValidationError. Other
// errors, such as malformed JSON, become ErrInvalidInput.
func FromValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = describeRule(fe)
	}
	return &ValidationError{Fields: fields}
}

// UseJSONFieldNames makes v report fields by their JSON names. The HTTP layer
// applies it to gin's validator engine.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
