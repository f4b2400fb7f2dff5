package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"roombook/pkg/model"
)

type RoomValidator struct {
	validate *validator.Validate
}

func NewRoomValidator() *RoomValidator {
	return &RoomValidator{
		validate: validator.New(),
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	if err := v.validate.Struct(room); err != nil {
		return translate(err)
	}
	return nil
}

func (v *RoomValidator) ValidateUpdate(updates *model.RoomUpdate) error {
	if updates.RoomName == nil && updates.Capacity == nil && updates.IsActive == nil {
		return fmt.Errorf("at least one field must be provided")
	}
	if err := v.validate.Struct(updates); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fieldErr.Field()))
		}
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
