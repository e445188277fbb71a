package validator

import (
	"roombook/pkg/model"
	"roombook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type RoomValidator struct {
	validate *validator.Validate
}

func NewRoomValidator() *RoomValidator {
	return &RoomValidator{validate: validation.New()}
}

func (v *RoomValidator) ValidateCreate(room *model.RoomCreate) error {
	return validation.Struct(v.validate, room)
}

func (v *RoomValidator) ValidateUpdate(update *model.RoomUpdate) error {
	if update.IsEmpty() {
		return validation.ValidationErrors{{Field: "updates", Message: "at least one field must be provided"}}
	}
	return validation.Struct(v.validate, update)
}
