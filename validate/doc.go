// Package validate defines the schema capability consumed by the
// pipeline's input-validation step.
//
// A Schema turns raw input into a validated, typed value or a list of
// field-level failures. The provided Struct schema is backed by
// go-playground/validator struct tags; any validation engine can be
// plugged in through the Schema interface.
package validate
