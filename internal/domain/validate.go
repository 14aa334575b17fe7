package domain

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var nickPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nick", func(fl validator.FieldLevel) bool {
		return nickPattern.MatchString(fl.Field().String())
	})
	return v
}()

// ValidNumber checks that s is an E.164 telephone number.
func ValidNumber(s string) error {
	if err := validate.Var(s, "required,e164"); err != nil {
		return fmt.Errorf("invalid E.164 number format: %s", s)
	}
	return nil
}

// ValidNick checks that s is an identifier-safe nick.
func ValidNick(s string) error {
	if err := validate.Var(s, "required,nick"); err != nil {
		return fmt.Errorf("invalid nick format: %s", s)
	}
	return nil
}
