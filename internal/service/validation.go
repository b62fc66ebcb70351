package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
)

// NewValidator returns a validator with the attendance domain rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("funding_state", func(fl validator.FieldLevel) bool {
		return models.FundingState(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("month_label", func(fl validator.FieldLevel) bool {
		_, err := dates.ParseMonthLabel(fl.Field().String())
		return err == nil
	})
	return v
}
