package school

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shuleni/mahudhurio/core"
)

var (
	attModeTag  = "attmode"
	attModeText = "attendance mode must be one of: daily, subject-wise"
)

// InitValidators registers the school package's custom validations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attModeTag, attModeValidation)
	core.RegisterCustomTranslation(validate, translator, attModeTag, attModeText)
}

// attModeValidation checks that the value is a known attendance mode.
func attModeValidation(fl validator.FieldLevel) bool {
	mode := fl.Field().String()
	for _, m := range AttendanceModes {
		if mode == m {
			return true
		}
	}
	return false
}
