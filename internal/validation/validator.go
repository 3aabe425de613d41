// Package validation provides request validation using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
)

// Price limits: at most MaxPriceDigits significant digits, PriceDecimalPlaces of them after the point.
const (
	MaxPriceDigits     = 5
	PriceDecimalPlaces = 2
)

// maxPrice is the smallest value that no longer fits the price column.
var maxPrice = decimal.New(1, MaxPriceDigits-PriceDecimalPlaces)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		name, _, _ = strings.Cut(name, ",")
		return name
	})

	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	//nolint:errcheck // tags are static; registration only fails on empty names
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return ValidPrice(fl.Field().String())
	})
	//nolint:errcheck // tags are static; registration only fails on empty names
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return ValidHTTPURL(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// ValidPrice reports whether s is a non-negative decimal that fits the price column.
func ValidPrice(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	if d.IsNegative() || d.GreaterThanOrEqual(maxPrice) {
		return false
	}
	return d.Equal(d.Round(PriceDecimalPlaces))
}

// ValidHTTPURL reports whether s is an absolute http or https URL.
func ValidHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

// fieldPath strips the top-level struct name from the namespace so nested
// fields read "tags[1]" rather than "recipeFields.tags[1]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not have more than %s entries", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url", "httpurl":
		return "must be a valid URL"
	case "price":
		return fmt.Sprintf("must be a non-negative number with at most %d digits and %d decimal places",
			MaxPriceDigits, PriceDecimalPlaces)
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}
