package user

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	// bcrypt ignores everything past 72 bytes
	MaxPasswordLen = 72
)

// Validator - validation of user supplied data
type Validator interface {
	ValidateRegister(req RegisterRequest) error
}

type StructValidator struct {
	v *validator.Validate
}

// NewValidator creates a validator driven by the `validate` struct tags.
func NewValidator() *StructValidator {
	v := validator.New()
	// registration is done once with a static tag, the error can only be a programming mistake
	if err := v.RegisterValidation("username", validUsername); err != nil {
		panic(err)
	}
	return &StructValidator{v: v}
}

// ValidateRegister validates registration data.
func (s *StructValidator) ValidateRegister(req RegisterRequest) error {
	err := s.v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "email must be a valid address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return "username can only contain letters, digits, '_', '-', '.'"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validUsername(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
