package handler

import (
	"strings"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/issuer/models"
	"trustscore/internal/issuer/service"
	dErrors "trustscore/pkg/domain-errors"
	strutil "trustscore/pkg/platform/strings"
	"trustscore/pkg/platform/validation"
)

type RegisterIssuerRequest struct {
	Address     string   `json:"address"`
	DisplayName string   `json:"display_name"`
	TrustScore  *int     `json:"trust_score"`
	Types       []string `json:"credential_types"`
}

func (r *RegisterIssuerRequest) Normalize() {
	if r == nil {
		return
	}
	r.Address = strings.TrimSpace(r.Address)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Types = strutil.DedupeAndTrimUpper(r.Types)
}

func (r *RegisterIssuerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if r.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "display_name is required")
	}
	if r.TrustScore == nil {
		return dErrors.New(dErrors.CodeValidation, "trust_score is required")
	}
	if err := validation.CheckStringLength("address", r.Address, validation.MaxIdentifierLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("display_name", r.DisplayName, validation.MaxDisplayNameLength); err != nil {
		return err
	}
	return validation.CheckSliceCount("credential_types", len(r.Types), validation.MaxCredentialTypes)
}

func (r *RegisterIssuerRequest) ToCommand() service.RegisterCommand {
	return service.RegisterCommand{
		Address:     r.Address,
		DisplayName: r.DisplayName,
		TrustScore:  *r.TrustScore,
		Types:       toTypes(r.Types),
	}
}

type AuthorizeIssuerRequest struct {
	Types []string `json:"credential_types"`
}

func (r *AuthorizeIssuerRequest) Normalize() {
	if r == nil {
		return
	}
	r.Types = strutil.DedupeAndTrimUpper(r.Types)
}

func (r *AuthorizeIssuerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Types) == 0 {
		return dErrors.New(dErrors.CodeValidation, "credential_types is required")
	}
	return validation.CheckSliceCount("credential_types", len(r.Types), validation.MaxCredentialTypes)
}

type IssuerResponse struct {
	Address     string   `json:"address"`
	DisplayName string   `json:"display_name"`
	TrustScore  int      `json:"trust_score"`
	Active      bool     `json:"active"`
	Types       []string `json:"credential_types"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toIssuerResponse(r *models.Record) *IssuerResponse {
	types := make([]string, len(r.Types))
	for i, t := range r.Types {
		types[i] = string(t)
	}
	return &IssuerResponse{
		Address:     string(r.Address),
		DisplayName: r.DisplayName,
		TrustScore:  r.TrustScore,
		Active:      r.Active,
		Types:       types,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTypes(values []string) []catalog.Type {
	out := make([]catalog.Type, len(values))
	for i, v := range values {
		out[i] = catalog.Type(v)
	}
	return out
}
