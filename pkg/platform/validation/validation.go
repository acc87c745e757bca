// Package validation checks tagged request structs at the HTTP boundary and
// reports failures as a field list.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	dErrors "rentmeroom/pkg/domain-errors"
)

var (
	once     sync.Once
	instance *validator.Validate

	contactPattern   = regexp.MustCompile(`^[0-9+()\-\s]+$`)
	passwordSpecials = `!@#$%^&*(),.?":{}|<>`
)

// Validator returns the shared instance with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("strongpassword", strongPassword)
		_ = v.RegisterValidation("contact", contact)
		instance = v
	})
	return instance
}

// Struct validates s and returns a validation_error carrying one entry per
// failed field.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request")
	}
	fields := make([]dErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, dErrors.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return dErrors.Validation(fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters long"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters long"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters long"
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of " + fe.Param()
	case "strongpassword":
		return "must contain an uppercase letter, a lowercase letter, a number and a special character"
	case "contact":
		return "may contain only digits, spaces and + ( ) -"
	case "latitude", "longitude":
		return "is out of range"
	default:
		return "is invalid"
	}
}

func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func contact(fl validator.FieldLevel) bool {
	return contactPattern.MatchString(fl.Field().String())
}
