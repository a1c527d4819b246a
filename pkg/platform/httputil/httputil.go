// Package httputil writes JSON responses and maps domain errors onto HTTP.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "trustscore/pkg/domain-errors"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

type mapping struct {
	status int
	code   string
}

// Credential taxonomy codes keep their own name on the wire.
var codeTable = map[dErrors.Code]mapping{
	dErrors.CodeNotFound:           {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:         {http.StatusBadRequest, "bad_request"},
	dErrors.CodeInvalidInput:       {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:         {http.StatusBadRequest, "validation_error"},
	dErrors.CodeInvariantViolation: {http.StatusBadRequest, "validation_error"},
	dErrors.CodeTooLarge:           {http.StatusRequestEntityTooLarge, "payload_too_large"},
	dErrors.CodeConflict:           {http.StatusConflict, "conflict"},
	dErrors.CodeUnauthorized:       {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeForbidden:          {http.StatusForbidden, "forbidden"},
	dErrors.CodeTimeout:            {http.StatusGatewayTimeout, "timeout"},
	dErrors.CodeUnavailable:        {http.StatusServiceUnavailable, "unavailable"},
	dErrors.CodeEncoding:           {http.StatusBadRequest, string(dErrors.CodeEncoding)},
	dErrors.CodeInvalidSignature:   {http.StatusUnprocessableEntity, string(dErrors.CodeInvalidSignature)},
	dErrors.CodeUnauthorizedIssuer: {http.StatusForbidden, string(dErrors.CodeUnauthorizedIssuer)},
	dErrors.CodeDuplicateID:        {http.StatusConflict, string(dErrors.CodeDuplicateID)},
	dErrors.CodeAlreadyRevoked:     {http.StatusConflict, string(dErrors.CodeAlreadyRevoked)},
}

var internal = mapping{http.StatusInternalServerError, "internal_error"}

func lookup(code dErrors.Code) mapping {
	if m, ok := codeTable[code]; ok {
		return m
	}
	return internal
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError renders err with the status its domain code maps to. Errors
// without a code, and internal errors, never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, internal.status, ErrorResponse{Error: internal.code})
		return
	}
	m := lookup(domainErr.Code)
	resp := ErrorResponse{Error: m.code}
	if m != internal {
		resp.Description = domainErr.Message
	}
	WriteJSON(w, m.status, resp)
}

// DomainCodeToHTTPStatus returns the status code err responses use for code.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	return lookup(code).status
}

// DomainCodeToHTTPCode returns the "error" field value for code.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	return lookup(code).code
}
