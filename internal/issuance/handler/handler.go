package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	credmodels "trustscore/internal/credential/models"
	"trustscore/internal/credential/signature"
	"trustscore/internal/issuance/models"
	"trustscore/internal/issuance/service"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/httputil"
	"trustscore/pkg/requestcontext"
)

// Service defines the two-phase issuance operations.
type Service interface {
	RequestCredential(ctx context.Context, req models.Request) (*models.Draft, error)
	Draft(ctx context.Context, id domain.CredentialID) (*models.Draft, error)
	Submit(ctx context.Context, id domain.CredentialID, sig []byte) (*credmodels.Credential, error)
	Issue(ctx context.Context, req models.Request, signer service.Signer) (*credmodels.Credential, []byte, error)
}

type Handler struct {
	service Service
	signer  service.Signer
	logger  *slog.Logger
}

type Option func(*Handler)

// WithSigner enables one-shot issuance through a custodial signer.
func WithSigner(signer service.Signer) Option {
	return func(h *Handler) {
		h.signer = signer
	}
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts issuance routes. Callers wrap them with issuer-role auth;
// the handler then restricts each issuer to its own DID.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issuance/requests", h.HandleCreate)
	r.Post("/issuance/requests/{id}/signature", h.HandleSubmit)
	if h.signer != nil {
		r.Post("/issuance/credentials", h.HandleIssue)
	}
}

// decodeCreate parses an issuance request and pins it to the caller's DID.
func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request) (models.Request, bool) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateIssuanceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return models.Request{}, false
	}
	issuer := domain.IssuerID(requestcontext.Actor(ctx).Subject)
	if req.Issuer != "" && domain.IssuerID(req.Issuer) != issuer {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer tokens may only request credentials for their own identity"))
		return models.Request{}, false
	}
	return req.ToRequest(issuer), true
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}

	d, err := h.service.RequestCredential(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "issuance request rejected",
			"error", err,
			"request_id", requestID,
			"credential_type", req.Type,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDraftResponse(d))
}

// HandleIssue requests, signs and submits in one call using the custodial
// signer. Nothing is stored when signing fails.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}

	c, _, err := h.service.Issue(ctx, req, h.signer)
	if err != nil {
		h.logger.WarnContext(ctx, "one-shot issuance failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"credential_type", req.Type,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIssuedResponse(c))
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitSignatureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.Draft(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if d.Credential.Issuer != domain.IssuerID(requestcontext.Actor(ctx).Subject) {
		// Same response as an unknown draft so ids of other issuers do not leak.
		httputil.WriteError(w, models.ErrDraftNotFound)
		return
	}

	c, err := h.service.Submit(ctx, id, signature.Decode(req.Signature))
	if err != nil {
		h.logger.WarnContext(ctx, "signature submission rejected",
			"error", err,
			"request_id", requestID,
			"credential_id", id,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIssuedResponse(c))
}
