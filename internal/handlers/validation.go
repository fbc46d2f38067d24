package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"catalog/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gofiber/fiber/v2"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return validate
}

// bindJSON decodes the body into out and validates it.
func bindJSON(c *fiber.Ctx, validate *validator.Validate, out any) error {
	if err := json.Unmarshal(c.Body(), out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperrors.BadRequest("%s: must be of type %s", typeErr.Field, typeErr.Type)
		}
		return apperrors.BadRequest("Malformed request body")
	}
	if err := validate.Struct(out); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError joins every field failure as "field: message".
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return apperrors.BadRequest("Validation failed")
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fe.Field()+": "+fieldMessage(fe))
	}
	return apperrors.BadRequest("%s", strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return "must not be blank"
		}
		return "must not be null"
	case "notblank":
		return "must not be blank"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "size must be between 0 and " + fe.Param()
	default:
		return "is invalid"
	}
}
