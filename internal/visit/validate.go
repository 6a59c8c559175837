package visit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord is wrapped by every validation failure.
var ErrInvalidRecord = errors.New("invalid visit record")

// ValidationError lists the problems found in a record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid visit record: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterCustomTypeFunc(numberValue, Number(""))
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	validate.RegisterValidation("lat", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		lat := fl.Field().Float()
		return lat >= -90 && lat <= 90
	})
	validate.RegisterValidation("lng", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		lng := fl.Field().Float()
		return lng >= -180 && lng <= 180
	})
	validate.RegisterValidation("permit", func(fl validator.FieldLevel) bool {
		return PermitType(fl.Field().String()).IsValid()
	})
	validate.RegisterStructValidation(recordLevel, Record{})
}

// recordLevel checks that a construction estimate, when given, is a
// positive whole number.
func recordLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(Record)
	if r.ConstructionDays.IsZero() {
		return
	}
	if _, ok := r.Days(); !ok {
		sl.ReportError(r.ConstructionDays, "constructionDays", "ConstructionDays", "days", "")
	}
}

// numberValue exposes a Number to the validator: nil when empty, the
// parsed float when numeric, the raw text otherwise.
func numberValue(v reflect.Value) interface{} {
	n, ok := v.Interface().(Number)
	if !ok || n.IsZero() {
		return nil
	}
	if f, ok := n.Float(); ok {
		return f
	}
	return string(n)
}

// Validate checks the structural rules of a record: required text
// fields, coordinate ranges, the construction estimate, permit tags and
// the route photo cap. Photo contents are not inspected.
func (r *Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating record: %w", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return fe.Field() + " is required"
	case "lat":
		return "latitude must be a number between -90 and 90"
	case "lng":
		return "longitude must be a number between -180 and 180"
	case "days":
		return "constructionDays must be a positive whole number"
	case "permit":
		return fmt.Sprintf("%s has unknown permit type %q", fe.Field(), fe.Value())
	case "max":
		return fmt.Sprintf("%s allows at most %s items", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
