package handler

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// dateOnlyLayout is the payload format for calendar dates
const dateOnlyLayout = "2006-01-02"

// RegisterValidations installs custom binding validations on gin's default
// validator. Safe to call more than once.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("dateonly", validDateOnly)
}

// validDateOnly accepts an empty string or a YYYY-MM-DD date
func validDateOnly(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(dateOnlyLayout, value)
	return err == nil
}
