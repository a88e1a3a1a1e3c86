package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

var (
	validate = newValidator()

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 64 && slugPattern.MatchString(s)
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the handler
// should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		(&realmsdk.APIError{
			StatusCode: http.StatusBadRequest,
			Code:       realmsdk.CodeInvalidRequest,
			Message:    err.Error(),
		}).WriteError(w)
		return false
	}
	if fields := validationFields(validate.Struct(dst)); fields != nil {
		writeValidationError(w, fields)
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	(&realmsdk.APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       realmsdk.CodeValidation,
		Message:    "The given data was invalid.",
		Fields:     fields,
	}).WriteError(w)
}

// validationFields flattens validator errors into field -> message.
func validationFields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if _, rest, ok := strings.Cut(name, "."); ok {
			name = rest
		}
		fields[name] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "slug":
		return "must be lower case letters, digits and single dashes"
	case "excluded_with":
		return "cannot be combined with " + snakeCase(fe.Param())
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}

// snakeCase turns a Go field name such as TenantSlug into its JSON name.
func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
