package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// usernameRe: a letter followed by 1-20 letters, digits, '-', '_' or '.'.
	usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]{1,20}$`)
	slugRe     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// RegisterRules installs the custom validations on gin's binding engine.
// Call once at startup.
func RegisterRules() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("username", validUsername)
	_ = v.RegisterValidation("slugfmt", validSlug)
}

func validUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	// "me" is reserved for the self-profile route.
	if value == "me" {
		return false
	}
	return usernameRe.MatchString(value)
}

func validSlug(fl validator.FieldLevel) bool {
	return slugRe.MatchString(fl.Field().String())
}

func FormatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "username":
		return fmt.Sprintf("%s must start with a letter, contain only letters, digits, '-', '_' or '.', and must not be 'me'", field)
	case "slugfmt":
		return fmt.Sprintf("%s must be a lowercase URL-safe slug", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
