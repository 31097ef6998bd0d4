package utils

import (
	"reflect"
	"strings"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/go-playground/validator/v10"
)

// Custom validation functions

func ValidateSection(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, section := range content.SectionOrder {
		if section == value {
			return true
		}
	}
	return false
}

func ValidateFlagColor(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "red", "yellow", "green", "none":
		return true
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("section", ValidateSection)
	validate.RegisterValidation("flag_color", ValidateFlagColor)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
