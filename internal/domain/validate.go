package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNoCharterPartyTerm is returned when a calculation has no CP term to reconcile against.
	ErrNoCharterPartyTerm = errors.New("no charter party terms defined")

	// ErrTermIndexOutOfRange is returned when the selected term does not exist.
	ErrTermIndexOutOfRange = errors.New("selected charter party term does not exist")

	// ErrReportNotFound is returned by report archives for an unknown run ID.
	ErrReportNotFound = errors.New("report not found")
)

// ValidationError reports an input value rejected at acceptance time.
// Field uses the JSON name of the offending value, e.g. "terms[0].speed_kn".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsConfigurationError reports whether err means a required CP term is missing.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNoCharterPartyTerm) || errors.Is(err, ErrTermIndexOutOfRange)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Only float fields carry the "finite" tag; registration cannot fail for a static tag.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// ValidateTerm checks a CP term against the tolerances it will be reconciled with.
// The warranted speed must exceed the speed tolerance, otherwise the slowest
// warranted speed would be zero or negative.
func ValidateTerm(t CharterPartyTerm, tol Tolerances) error {
	if err := checkStruct(t); err != nil {
		return err
	}
	if t.SpeedKn <= tol.SpeedKn {
		return &ValidationError{
			Field:   "speed_kn",
			Message: fmt.Sprintf("must be greater than the speed tolerance of %g kn", tol.SpeedKn),
		}
	}
	return nil
}

// ValidateWeatherDefinition checks the Beaufort range and wave height limit.
func ValidateWeatherDefinition(d WeatherDefinition) error {
	return checkStruct(d)
}

// ValidateExclusion requires both bounds and start strictly before end.
func ValidateExclusion(p ExclusionPeriod) error {
	return checkStruct(p)
}

// ValidateTolerances requires a positive speed tolerance and a fuel tolerance in (0, 100) percent.
func ValidateTolerances(t Tolerances) error {
	return checkStruct(t)
}

// ValidateVessel checks the optional IMO number format and tonnage.
func ValidateVessel(v Vessel) error {
	return checkStruct(v)
}

// ValidateVoyage checks coordinates and that EOSP follows COSP when both are set.
func ValidateVoyage(v VoyageDetails) error {
	return checkStruct(v)
}

// checkStruct runs the struct tags and converts the first failure into a ValidationError.
func checkStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "finite":
		return "must be a finite number"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gtfield":
		return "must be after " + strings.ToLower(fe.Param())
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "numeric":
		return "must be numeric"
	default:
		return "failed the " + fe.Tag() + " check"
	}
}

// withField prefixes the field of a ValidationError, leaving other errors untouched.
func withField(prefix string, err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	return &ValidationError{Field: prefix + "." + verr.Field, Message: verr.Message}
}
