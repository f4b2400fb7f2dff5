package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/model"
)

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if !booking.EndTime.After(booking.StartTime) {
		return bookingserrors.ErrInvalidTimeRange
	}
	if err := v.validate.Struct(booking); err != nil {
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
		case "gtfield":
			messages = append(messages, fmt.Sprintf("%s must be after %s", fieldErr.Field(), fieldErr.Param()))
		case "mongodb":
			messages = append(messages, fmt.Sprintf("%s must be a valid object ID", fieldErr.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", fieldErr.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fieldErr.Field()))
		}
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
