package validators

import (
	"fmt"
	"strings"
	"time"

	"drowsyguard/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("iso8601", validateISO8601)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateAlertEvent checks the untrusted inbound event. Any failure is a
// MalformedAlert rejection; the event is never persisted.
func ValidateAlertEvent(event *models.AlertEvent) error {
	if errs := validateStruct(event); len(errs) > 0 {
		return fmt.Errorf("%w: %s", models.ErrMalformedAlert, errs.Error())
	}
	return nil
}

// ValidateProfileUpdate checks an inbound profile upsert payload.
func ValidateProfileUpdate(update *models.ProfileUpdate) error {
	if errs := validateStruct(update); len(errs) > 0 {
		return fmt.Errorf("%w: %s", models.ErrMalformedAlert, errs.Error())
	}
	return nil
}

func validateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Message: messageForTag(err.Tag()),
			})
		}
	}

	return validationErrors
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "field is required"
	case "iso8601":
		return "must be an ISO-8601 timestamp"
	default:
		return "invalid value"
	}
}

func validateISO8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}
