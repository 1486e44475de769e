package contract

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alexanderramin/effort/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterStructValidation(validateWindow, WindowInput{})
	_ = validate.RegisterValidation("employee_name", func(fl validator.FieldLevel) bool {
		e := domain.Employee{Name: fl.Field().String()}
		return e.ValidateName() == nil
	})
}

// validateWindow requires each bound to carry both year and month.
func validateWindow(sl validator.StructLevel) {
	w := sl.Current().Interface().(WindowInput)
	if (w.StartYear == nil) != (w.StartMonth == nil) {
		sl.ReportError(w.StartYear, "start_year", "StartYear", "paired", "")
	}
	if (w.EndYear == nil) != (w.EndMonth == nil) {
		sl.ReportError(w.EndYear, "end_year", "EndYear", "paired", "")
	}
	if !w.Window().Valid() {
		sl.ReportError(w.EndYear, "end_year", "EndYear", "window_order", "")
	}
}

// Validate checks a request's shape and reports the first failure as a
// domain validation error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating request: %w", err)
	}
	fe := verrs[0]
	return domain.NewValidationError(fieldPath(fe), "%s", describe(fe))
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "paired":
		return "year and month must be given together"
	case "window_order":
		return "window must start on or before its end"
	case "employee_name":
		return `must look like "Last,First" or "Last,First Middle"`
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
