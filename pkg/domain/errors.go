package domain

import "errors"

var (
	errEmptyDID   = errors.New("did cannot be empty")
	errDIDTooLong = errors.New("did exceeds 256 bytes")
	errDIDScheme  = errors.New("did must start with did:")
	errDIDShape   = errors.New("did must have the form did:<method>:<id>")
	errDIDMethod  = errors.New("did method must be lowercase alphanumeric")
	errDIDIdent   = errors.New("did method-specific id contains invalid characters")
)
