package handler

import (
	"encoding/hex"
	"strings"

	"trustscore/internal/credential/catalog"
	credmodels "trustscore/internal/credential/models"
	"trustscore/internal/credential/signature"
	"trustscore/internal/issuance/models"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/validation"
)

type CreateIssuanceRequest struct {
	Subject string `json:"subject"`
	Type    string `json:"type"`
	// Issuer is optional; when present it must match the token subject.
	Issuer string `json:"issuer,omitempty"`
}

func (r *CreateIssuanceRequest) Normalize() {
	if r == nil {
		return
	}
	r.Subject = strings.TrimSpace(r.Subject)
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	r.Issuer = strings.TrimSpace(r.Issuer)
}

func (r *CreateIssuanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Subject == "" {
		return dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	return validation.CheckStringLength("subject", r.Subject, validation.MaxIdentifierLength)
}

func (r *CreateIssuanceRequest) ToRequest(issuer domain.IssuerID) models.Request {
	return models.Request{
		Issuer:  issuer,
		Subject: domain.SubjectID(r.Subject),
		Type:    catalog.Type(r.Type),
	}
}

type SubmitSignatureRequest struct {
	Signature string `json:"signature"`
}

func (r *SubmitSignatureRequest) Normalize() {
	if r == nil {
		return
	}
	r.Signature = strings.TrimSpace(r.Signature)
}

func (r *SubmitSignatureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	return validation.CheckStringLength("signature", r.Signature, validation.MaxSignatureLength)
}

// DraftResponse carries everything an issuer needs to sign offline.
type DraftResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Issuer       string `json:"issuer"`
	Subject      string `json:"subject"`
	IssuedAt     int64  `json:"issued_at"`
	ExpiresAt    int64  `json:"expires_at"`
	Weight       int    `json:"weight"`
	Payload      string `json:"payload"`
	Digest       string `json:"digest"`
	PendingUntil int64  `json:"pending_until"`
}

func toDraftResponse(d *models.Draft) *DraftResponse {
	c := d.Credential
	return &DraftResponse{
		ID:           string(c.ID),
		Type:         string(c.Type),
		Issuer:       string(c.Issuer),
		Subject:      string(c.Subject),
		IssuedAt:     c.IssuedAt.Unix(),
		ExpiresAt:    c.ExpiresAt.Unix(),
		Weight:       c.Weight,
		Payload:      "0x" + hex.EncodeToString(d.Payload),
		Digest:       "0x" + d.Digest.Hex(),
		PendingUntil: d.PendingUntil.Unix(),
	}
}

type IssuedResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Issuer    string `json:"issuer"`
	Subject   string `json:"subject"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
	Weight    int    `json:"weight"`
	Signature string `json:"signature"`
}

func toIssuedResponse(c *credmodels.Credential) *IssuedResponse {
	return &IssuedResponse{
		ID:        string(c.ID),
		Type:      string(c.Type),
		Issuer:    string(c.Issuer),
		Subject:   string(c.Subject),
		IssuedAt:  c.IssuedAt.Unix(),
		ExpiresAt: c.ExpiresAt.Unix(),
		Weight:    c.Weight,
		Signature: signature.Encode(c.Signature),
	}
}
