package handler

import (
	"strings"
	"time"

	"trustscore/internal/credential/models"
	"trustscore/internal/credential/signature"
	dErrors "trustscore/pkg/domain-errors"
)

type CredentialResponse struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	Issuer           string  `json:"issuer"`
	Subject          string  `json:"subject"`
	IssuedAt         int64   `json:"issued_at"`
	ExpiresAt        int64   `json:"expires_at"`
	Weight           int     `json:"weight"`
	Status           string  `json:"status"`
	Signature        string  `json:"signature,omitempty"`
	RevokedAt        *int64  `json:"revoked_at,omitempty"`
	RevocationReason *string `json:"revocation_reason,omitempty"`
}

func toCredentialResponse(c *models.Credential, now time.Time) *CredentialResponse {
	resp := &CredentialResponse{
		ID:        string(c.ID),
		Type:      string(c.Type),
		Issuer:    string(c.Issuer),
		Subject:   string(c.Subject),
		IssuedAt:  c.IssuedAt.Unix(),
		ExpiresAt: c.ExpiresAt.Unix(),
		Weight:    c.Weight,
		Status:    string(c.StatusAt(now)),
	}
	if len(c.Signature) > 0 {
		resp.Signature = signature.Encode(c.Signature)
	}
	if c.RevokedAt != nil {
		at := c.RevokedAt.Unix()
		reason := c.RevocationReason
		resp.RevokedAt = &at
		resp.RevocationReason = &reason
	}
	return resp
}

type RevokeRequest struct {
	Reason string `json:"reason"`
}

func (r *RevokeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > models.MaxRevocationReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 256 bytes")
	}
	return nil
}
