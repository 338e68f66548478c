package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// EntityCodePattern matches the natural keys used for students, teachers and companies
	EntityCodePattern = `^[A-Za-z0-9][A-Za-z0-9._/-]{0,31}$`

	NameMaxLength = 200
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	EntityCode *regexp.Regexp
}{
	EntityCode: regexp.MustCompile(EntityCodePattern),
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their label tag so messages read like column names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
			return f.Name
		})

		_ = validate.RegisterValidation("entitycode", func(fl validator.FieldLevel) bool {
			return CompiledPatterns.EntityCode.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s and returns an error whose message lists every failed field.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "entitycode":
		return e.Field() + " must be a short code of letters and digits"
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	case "len":
		return e.Field() + " must be exactly " + e.Param() + " characters"
	case "hostname":
		return e.Field() + " must be a host name"
	case "required_if":
		return e.Field() + " is required when " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
