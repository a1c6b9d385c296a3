// Package validate holds the request validation rules shared by the auth,
// social and posts handlers.
package validate

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest secret accepted at signup and password change.
const MinPasswordLength = 6

var (
	ErrInvalidEmail     = errors.New("email is not valid")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrMissingFields    = errors.New("required fields are missing")
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	return val
}

// Email checks the localpart@domain.tld shape.
func Email(email string) error {
	if err := v.Var(email, "emailshape"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Password enforces the minimum length, counted in characters.
func Password(password string) error {
	if err := v.Var(password, "min=6"); err != nil {
		return ErrPasswordTooShort
	}
	return nil
}

// Struct runs the `validate` tags on a request struct.
func Struct(s any) error {
	if err := v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ErrMissingFields
		}
		return err
	}
	return nil
}
