package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

var weekdays = map[string]struct{}{
	"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {},
}

// NewValidator returns a validator with the calendar vocabulary registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerCalendarValidations(v)
	return v
}

func registerCalendarValidations(v *validator.Validate) {
	_ = v.RegisterValidation("recurrence", func(fl validator.FieldLevel) bool {
		return models.Recurrence(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("timeline", func(fl validator.FieldLevel) bool {
		return models.Timeline(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("icon", func(fl validator.FieldLevel) bool {
		_, ok := calendar.ParseIcon(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := weekdays[strings.ToLower(fl.Field().String())]
		return ok
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	registerCalendarValidations(v)
	return v
}
