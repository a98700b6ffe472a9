package validate

import "github.com/jonwraymond/apikit/apierr"

// Schema validates raw input into a typed value.
//
// Contract:
//   - Returns (value, nil) on success; the value may be a coerced or
//     typed copy of the input.
//   - Returns (nil, details) on failure, with one entry per failing
//     field and dot-joined paths for nested structure.
type Schema interface {
	Validate(input any) (any, []apierr.FieldError)
}

// SchemaFunc adapts a function to the Schema interface.
type SchemaFunc func(input any) (any, []apierr.FieldError)

// Validate calls f.
func (f SchemaFunc) Validate(input any) (any, []apierr.FieldError) {
	return f(input)
}

// Schemas bundles the per-slot schemas for one call. Nil slots are not
// validated; their raw input passes through unchanged.
type Schemas struct {
	Params Schema
	Query  Schema
	Body   Schema
}
