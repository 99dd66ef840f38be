package validators

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Fixed, user-facing messages.
const (
	MsgRequired      = "This field is required."
	MsgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	MsgImageTooLarge = "The image file is too large."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidSlug   = "Enter a valid “slug” consisting of letters, numbers, underscores or hyphens."
	MsgInvalidName   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgReservedName  = "This username is not available."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgPasswordMatch = "The two password fields didn’t match."
)

var (
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
)

// ReservedUsernames collide with top-level routes.
var ReservedUsernames = map[string]struct{}{
	"new": {}, "follow": {}, "group": {}, "auth": {}, "admin": {},
	"media": {}, "health": {}, "static": {},
}

// Errors maps a form field name to a user-readable message.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for f, m := range e {
		parts = append(parts, f+": "+m)
	}
	return strings.Join(parts, "; ")
}

// CustomValidator plugs go-playground/validator into echo and knows how to
// turn its errors into per-field messages.
type CustomValidator struct {
	validate *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their form/json name, which is what templates key on
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})

	return &CustomValidator{validate: v}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, Translate(err).Error())
	}
	return nil
}

// Check validates a form and returns its field errors, or nil when valid.
func (cv *CustomValidator) Check(form interface{}) Errors {
	err := cv.validate.Struct(form)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate converts validator errors into Errors.
func Translate(err error) Errors {
	out := Errors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("__all__", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), messageFor(fe))
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "slug":
		return MsgInvalidSlug
	case "username":
		return MsgInvalidName
	case "email":
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordMatch
	case "numeric", "oneof":
		return MsgInvalidChoice
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	default:
		return "Enter a valid value."
	}
}

// IsReservedUsername reports whether name is taken by a route.
func IsReservedUsername(name string) bool {
	_, ok := ReservedUsernames[strings.ToLower(name)]
	return ok
}
