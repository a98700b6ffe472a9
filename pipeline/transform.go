package pipeline

import (
	"net/http"

	"github.com/jonwraymond/apikit/apierr"
)

// SuccessEnvelope is the canonical success body shape.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope is the canonical error body shape.
type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Errors  []apierr.FieldError `json:"errors,omitempty"`
}

// Transformer shapes outcomes into response bodies. It is explicit
// configuration held by each orchestrator, overridable per call; there
// is no process-wide mutable default.
type Transformer struct {
	Success func(data any, status int) any
	Error   func(message, code string, status int, details []apierr.FieldError) any
}

// DefaultTransformer returns the canonical envelope pair.
func DefaultTransformer() Transformer {
	return Transformer{
		Success: func(data any, _ int) any {
			return SuccessEnvelope{Success: true, Data: data}
		},
		Error: func(message, code string, _ int, details []apierr.FieldError) any {
			return ErrorEnvelope{Message: message, Code: code, Errors: details}
		},
	}
}

// Response lets a handler control status and headers directly instead of
// receiving the canonical envelope.
type Response struct {
	Status int
	Header http.Header
	Body   any
}
