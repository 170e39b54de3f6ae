//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports malformed candidate or opportunity input.
// It is the only error the matcher surfaces to callers.
type ValidationError struct {
	Subject string
	Errors  []FieldError
}

// FieldError is a single problem at a JSON field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("invalid %s: %s", ve.Subject, strings.Join(parts, "; "))
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (ve *ValidationError) add(field, message string) *ValidationError {
	ve.Errors = append(ve.Errors, FieldError{Field: field, Message: message})
	return ve
}

// orNil returns nil when no problems were collected so callers get an untyped nil error.
func (ve *ValidationError) orNil() error {
	if ve == nil || len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the domain enum tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("sector", func(fl validator.FieldLevel) bool {
			return Sector(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("engagement_type", func(fl validator.FieldLevel) bool {
			return EngagementType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("application_status", func(fl validator.FieldLevel) bool {
			return ApplicationStatus(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

func validateStruct(subject string, s any) *ValidationError {
	verr := &ValidationError{Subject: subject}
	err := Validator().Struct(s)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return verr.add("(root)", err.Error())
	}
	for _, fe := range fieldErrs {
		verr = verr.add(trimNamespace(fe.Namespace()), messageFor(fe))
	}
	return verr
}

// trimNamespace drops the leading struct name from a validator namespace.
func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func fieldPath(prefix string, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", prefix, index, field)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "sector":
		return "must be one of: " + SectorNames(", ")
	case "engagement_type":
		return "must be one of: full_time, part_time, remote, hybrid"
	case "application_status":
		return "must be one of: " + applicationStatusNames()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
