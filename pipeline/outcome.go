package pipeline

import "github.com/jonwraymond/apikit/apierr"

// Outcome is the generic internal result every translator operates on.
// Exactly one of Value and Err is populated.
type Outcome struct {
	Value any
	Err   *apierr.Error
}

// Success creates a success outcome.
func Success(value any) Outcome {
	return Outcome{Value: value}
}

// Failure creates a failure outcome.
func Failure(err *apierr.Error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil
}
