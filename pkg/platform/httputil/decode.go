package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "trustscore/pkg/domain-errors"
)

// Validatable, Normalizable and Sanitizable are the optional hooks
// PrepareRequest runs on a decoded body.
type Validatable interface {
	Validate() error
}

type Normalizable interface {
	Normalize()
}

type Sanitizable interface {
	Sanitize()
}

// DecodeJSON reads exactly one JSON value from the body into a new T. On
// failure it writes the error response itself and returns false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	if err := decodeBody(r.Body, req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}

func decodeBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return dErrors.Wrap(err, dErrors.CodeTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			return dErrors.New(dErrors.CodeBadRequest, "request body is empty")
		default:
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
		}
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "request body must hold a single JSON value")
	}
	return nil
}

// PrepareRequest runs Sanitize, Normalize and Validate in that order, for
// whichever of them req implements.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare is DecodeJSON followed by PrepareRequest. Validation
// errors without a domain code are reported as validation failures.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}

	if err := PrepareRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestID,
		)
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			err = dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}

	return req, true
}
