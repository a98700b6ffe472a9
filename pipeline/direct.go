package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/apikit/cache"
)

// Invoke runs the pipeline as a direct, non-HTTP call and translates the
// outcome into a plain (value, error) pair.
//
// Failures are returned as *apierr.Error; a rate-limit rejection maps to
// the TooManyRequests kind. Configuration errors (ErrNoVerifier,
// ErrNoTenantVerifier) are returned as plain errors: they indicate a
// wiring mistake and carry no caller-facing status.
func (o *Orchestrator) Invoke(ctx context.Context, inv *Invocation) (any, error) {
	if inv.Handler == nil {
		return nil, errors.New("pipeline: invocation handler is required")
	}

	res, err := o.run(ctx, inv)
	if err != nil {
		return nil, err
	}

	if res.cache.hit {
		var value any
		if len(res.cache.envelope.Body) > 0 {
			if err := json.Unmarshal(res.cache.envelope.Body, &value); err != nil {
				return nil, err
			}
		}
		return value, nil
	}

	if !res.outcome.OK() {
		return nil, res.outcome.Err
	}

	value := res.outcome.Value
	if res.cache.configured {
		if body, err := json.Marshal(value); err == nil {
			o.writeCache(ctx, &res, &cache.Envelope{
				Status: http.StatusOK,
				Body:   body,
			})
		}
	}
	return value, nil
}
