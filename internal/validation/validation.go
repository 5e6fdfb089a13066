// Package validation centralizes input checks: every request struct is
// validated once, before any storage call, with go-playground/validator tags.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// PhoneLen is the exact length of a phone number
	PhoneLen = 10
	// MinPasswordLen is the minimal accepted password length
	MinPasswordLen = 11
	// IDLen is the length of token and check identifiers
	IDLen = 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// notblank: строка не пустая после обрезки пробелов
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// Имена полей в ошибках берём из тегов
	v.RegisterTagNameFunc(fieldName)

	return v
}

// Struct validates a tagged struct and returns a readable error listing
// every failed field, or nil.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return describe(err)
	}
	return nil
}

// Phone checks a phone number key
func Phone(phone string) error {
	if err := validate.Var(phone, fmt.Sprintf("len=%d", PhoneLen)); err != nil {
		return fmt.Errorf("phone must be exactly %d characters", PhoneLen)
	}
	return nil
}

// ID checks a token or check identifier
func ID(id string) error {
	if err := validate.Var(id, fmt.Sprintf("len=%d", IDLen)); err != nil {
		return fmt.Errorf("id must be exactly %d characters", IDLen)
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "eq":
		return fmt.Sprintf("%s must be %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
