// Package validate checks request forms before they are sent.
package validate

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/aditya-makadiya/sociofeed/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// messages keyed by "field.tag", then by tag
var messages = map[string]string{
	"username.required":        "Username is required",
	"username.alphanum":        "Username must be alphanumeric and 3-50 characters",
	"username.min":             "Username must be alphanumeric and 3-50 characters",
	"username.max":             "Username must be alphanumeric and 3-50 characters",
	"email.required":           "Email is required",
	"email.email":              "Invalid email format",
	"password.required":        "Password is required",
	"password.strongpassword":  "Password must be at least 8 characters, with mixed case, number, and symbol",
	"confirmPassword.required": "Confirm password is required",
	"confirmPassword.eqfield":  "Passwords must match",
	"identifier.required":      "Username or email is required",
	"content.required":         "Content is required",
	"content.max":              "Content must be at most 1000 characters",
	"bio.max":                  "Bio must be at most 160 characters",
}

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// StrongPassword requires 8+ characters with upper and lower case, a digit and a symbol
func StrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// Struct validates a request form. Failures come back as a validation
// error whose fields map holds one message per invalid field.
func Struct(form interface{}) error {
	err := get().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New(errors.KindValidation, errors.MsgBadRequest, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return errors.ValidationError(fields)
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
