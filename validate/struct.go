package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonwraymond/apikit/apierr"
)

// validate is the shared validator instance. Field names in error paths
// come from json tags so reported paths match the wire format.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// StructSchema validates raw input against a struct type's validation
// tags. The input is decoded through a JSON round-trip, so it accepts
// maps, raw JSON bytes, or already-typed values.
type StructSchema struct {
	typ reflect.Type
}

// Struct creates a schema for the prototype's type. The prototype may be
// a struct value or a pointer to one.
func Struct(prototype any) *StructSchema {
	typ := reflect.TypeOf(prototype)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("validate: Struct requires a struct prototype, got %T", prototype))
	}
	return &StructSchema{typ: typ}
}

// Validate decodes input into the schema's type and runs tag validation.
// On success it returns a pointer to the typed value. On failure it
// returns one entry per failing field with dot-joined paths relative to
// the validated slot.
func (s *StructSchema) Validate(input any) (any, []apierr.FieldError) {
	out := reflect.New(s.typ).Interface()

	raw, err := toJSON(input)
	if err != nil {
		return nil, []apierr.FieldError{{Field: "", Message: "input is not valid JSON"}}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, []apierr.FieldError{{Field: fieldFromUnmarshalError(err), Message: "has an invalid type"}}
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]apierr.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, apierr.FieldError{
					Field:   fieldPath(fe),
					Message: messageFor(fe),
				})
			}
			return nil, details
		}
		return nil, []apierr.FieldError{{Field: "", Message: "validation failed"}}
	}

	return out, nil
}

func toJSON(input any) ([]byte, error) {
	switch v := input.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		return v, nil
	case json.RawMessage:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		return v, nil
	default:
		return json.Marshal(input)
	}
}

// fieldPath strips the root struct name from the namespace, leaving a
// dot-joined path in wire names ("address.city").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldFromUnmarshalError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed validation on '%s'", fe.Tag())
	}
}

var _ Schema = (*StructSchema)(nil)
