package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	err := v.validate.Struct(i)
	if err == nil {
		return nil, true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{Code: "INVALID", Message: err.Error()}}, false
	}

	fieldErrors := make([]ValidationError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldError.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fieldError.Field(), fieldError.Param())
		case "max":
			message = fmt.Sprintf("%s must not exceed %s", fieldError.Field(), fieldError.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", fieldError.Field(), fieldError.Param())
		default:
			message = fmt.Sprintf("%s failed on %s", fieldError.Field(), fieldError.Tag())
		}

		fieldErrors = append(fieldErrors, ValidationError{
			Field:   fieldError.Field(),
			Code:    strings.ToUpper(fieldError.Tag()),
			Message: message,
		})
	}

	return fieldErrors, false
}

// Err folds field errors into a single error for log-and-drop paths.
func (v *Validator) Err(i any) error {
	fieldErrors, ok := v.Validate(i)
	if ok {
		return nil
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		messages = append(messages, fieldError.Message)
	}

	return errors.New(strings.Join(messages, "; "))
}
