package validator

import (
	"regexp"

	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]+$`)

type UserValidator struct {
	validate *validator.Validate
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v := validation.New()

	if err := v.RegisterValidation("username", validateUsername); err != nil {
		log.Fatal("Failed to register 'username' validator", "error", err)
	}

	return &UserValidator{validate: v}
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func (v *UserValidator) ValidateRegistration(reg *model.Registration) error {
	return validation.Struct(v.validate, reg)
}

func (v *UserValidator) Validate(user *model.User) error {
	return validation.Struct(v.validate, user)
}
