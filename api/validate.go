package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// firstFailure turns a validator error into the body for its first field.
func firstFailure(err error) *ValidationFailure {
	verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns the concrete type
	if !ok || len(verrs) == 0 {
		return &ValidationFailure{Message: err.Error(), Type: "invalid"}
	}

	fe := verrs[0]
	// Drop the struct name from the namespace: "issueRequest.vouchers[0].code".
	path := fe.Namespace()
	if _, rest, found := strings.Cut(path, "."); found {
		path = rest
	}

	return &ValidationFailure{
		Message: fmt.Sprintf("%q %s", fe.Field(), describe(fe)),
		Path:    path,
		Type:    fe.Tag(),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must contain at least " + fe.Param() + " items"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}

// decodeFailure turns a JSON decoding error into the same body shape the
// validator produces. Type mismatches name the offending field.
func decodeFailure(err error) *ValidationFailure {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		kind := jsonKind(te.Type)
		name := te.Field
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		return &ValidationFailure{
			Message: fmt.Sprintf("%q must be a%s %s", name, article(kind), kind),
			Path:    te.Field,
			Type:    kind,
		}
	}
	if errors.Is(err, io.EOF) {
		return &ValidationFailure{Message: "request body is required", Type: "required"}
	}
	return &ValidationFailure{Message: "request body must be valid JSON", Type: "invalid"}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}

func article(kind string) string {
	switch kind {
	case "array", "object":
		return "n"
	}
	return ""
}
