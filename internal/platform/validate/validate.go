package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

func init() {
	// Errores con el nombre del tag json en vez del campo Go.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct valida un request usando sus struct tags.
func Struct(s any) error {
	return v.Struct(s)
}

// Fields traduce un error de validación a mensajes por campo.
// Devuelve nil si err no es de validación.
func Fields(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "this field is required"
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())
		case "max":
			msg = fmt.Sprintf("value is too long (maximum %s)", fe.Param())
		case "min", "gt", "gte":
			msg = fmt.Sprintf("value is too small (minimum %s)", fe.Param())
		case "url":
			msg = "must be a valid url"
		case "datetime":
			msg = fmt.Sprintf("must match format %s", fe.Param())
		default:
			msg = "invalid value"
		}
		out[fe.Field()] = msg
	}
	return out
}
