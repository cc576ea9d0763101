package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var localeRegex = regexp.MustCompile(`^[a-z]{2}[_-][a-z]{2}$`)

// Validator wraps go-playground/validator with the tags this module registers.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the "locale" tag registered.
func New() *Validator {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		return localeRegex.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct based on its tags.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
