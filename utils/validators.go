package utils

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators adds the note rules to v.
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("notblank", ValidateNotBlankRule)
}

// NewValidator returns a validator with the custom rules registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		panic(err)
	}
	return v
}

// InitValidator registers the custom rules on gin's binding engine as well.
func InitValidator() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return RegisterCustomValidators(v)
	}
	return nil
}

// ValidateNotBlankRule rejects strings that are empty after trimming whitespace.
func ValidateNotBlankRule(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return !IsBlank(field.String())
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
