package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidID        = errors.New("invalid id format")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("carousel capacity exceeded")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return priceText.MatchString(fl.Field().String())
	})
	return v
}

// priceText is a signed decimal with an optional integer part: "12", "-1.5", ".5". No exponent.
var priceText = regexp.MustCompile(`^[+-]?([0-9]*[.])?[0-9]+$`)

func formatFieldError(tag string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "numeric", "price":
		return "Must be a numeric value"
	default:
		return fmt.Sprintf("Validation failed on %s", tag)
	}
}

// collectFieldErrors appends validator failures to details. Non-validation errors are returned unchanged.
func collectFieldErrors(details []FieldError, err error, field string) ([]FieldError, error) {
	if err == nil {
		return details, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return details, err
	}
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" {
			name = field
		}
		details = append(details, FieldError{Field: name, Message: formatFieldError(fe.Tag())})
	}
	return details, nil
}
