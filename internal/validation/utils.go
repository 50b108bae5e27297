package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/deppfellow/bookstore/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
// - Define a struct with validator tags (`validate:"required"`)
// - Implement Validate() error that runs the shared validator
// - Return validator.ValidationErrors (or CustomValidationErrors for custom cases)
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a specific field.
// This is used for validation errors that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// New returns a validator that reports fields by their JSON name, so field
// errors match what the client sent.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// BindBody decodes the request body only. Path and query parameters are never
// bound into the payload, so a path id cannot leak into a record.
func BindBody(c echo.Context, payload any) error {
	binder := &echo.DefaultBinder{}
	err := binder.BindBody(c, payload)
	if err == nil {
		return nil
	}

	message := "Invalid request body"
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code != http.StatusBadRequest {
			// 415 Unsupported Media Type and friends keep their status.
			return echoErr
		}
		if m, ok := echoErr.Message.(string); ok && m != "" {
			message = m
		}
	}
	return errs.NewBadRequestError(message, false, nil, nil, nil)
}

// BindAndValidate binds the request body into payload and validates it.
//
// Flow:
// 1) BindBody populates the payload from the JSON body.
// 2) payload.Validate() applies validation rules when the payload implements Validatable.
// 3) Missing required fields yield the MissingData error, other failures a 400
//    with field-level errors.
func BindAndValidate(c echo.Context, payload any) error {
	if err := BindBody(c, payload); err != nil {
		return err
	}

	v, ok := payload.(Validatable)
	if !ok {
		return nil
	}

	if err := v.Validate(); err != nil {
		return ToHTTPError(err)
	}

	return nil
}

// ToHTTPError maps a Validate failure to the response sent to the client.
func ToHTTPError(err error) *errs.HTTPError {
	missing, fieldErrors := extractValidationError(err)
	if missing {
		return errs.NewMissingDataError(fieldErrors)
	}
	return errs.NewBadRequestError("Validation failed", true, nil, fieldErrors, nil)
}

// extractValidationError converts validator output into field errors and
// reports whether any of them is a missing required field.
func extractValidationError(err error) (bool, []errs.FieldError) {
	var fieldErrors []errs.FieldError
	missing := false

	if custom, ok := err.(CustomValidationErrors); ok {
		for _, e := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: e.Field,
				Error: e.Message,
			})
		}
		return false, fieldErrors
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return false, []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	for _, err := range validationErrors {
		var msg string

		switch err.Tag() {
		case "required":
			missing = true
			msg = "is required"

		case "min":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "gte":
			msg = fmt.Sprintf("must be greater than or equal to %s", err.Param())

		case "gt":
			msg = fmt.Sprintf("must be greater than %s", err.Param())

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", err.Field(), err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", err.Field(), err.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: err.Field(),
			Error: msg,
		})
	}

	return missing, fieldErrors
}
