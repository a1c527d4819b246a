package models

import dErrors "trustscore/pkg/domain-errors"

// Acceptance and lifecycle failures. Domain errors match by code, so
// errors.Is(err, ErrDuplicateID) holds for any duplicate_id error regardless
// of message.
var (
	ErrEncoding           = dErrors.New(dErrors.CodeEncoding, "credential encoding failed")
	ErrInvalidSignature   = dErrors.New(dErrors.CodeInvalidSignature, "signature verification failed")
	ErrUnauthorizedIssuer = dErrors.New(dErrors.CodeUnauthorizedIssuer, "issuer not authorized for credential type")
	ErrDuplicateID        = dErrors.New(dErrors.CodeDuplicateID, "credential id already tracked")
	ErrNotFound           = dErrors.New(dErrors.CodeNotFound, "credential not found")
	ErrAlreadyRevoked     = dErrors.New(dErrors.CodeAlreadyRevoked, "credential already revoked")
)
