// Package apierr defines the structured error taxonomy shared by the
// request pipeline and its adapters.
//
// Errors carry an HTTP status, a stable machine-readable code, a
// human-readable message, and optional field-level details. Unknown errors
// are canonicalized to a sanitized internal error so that original error
// text never reaches the caller.
package apierr
