package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"trustscore/internal/credential/models"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/httputil"
	"trustscore/pkg/requestcontext"
)

// Service defines the credential lifecycle operations the handler exposes.
type Service interface {
	Status(ctx context.Context, id domain.CredentialID) (*models.Credential, models.Status, error)
	Revoke(ctx context.Context, id domain.CredentialID, reason string) (*models.Credential, error)
	CredentialsFor(ctx context.Context, subject domain.SubjectID) ([]*models.Credential, error)
	Stats(ctx context.Context) (models.Stats, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the unauthenticated read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/credentials/{id}", h.HandleGet)
	r.Get("/subjects/{subject}/credentials", h.HandleListForSubject)
}

// RegisterAdmin mounts routes that callers must wrap with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/credentials/{id}/revoke", h.HandleRevoke)
	r.Get("/stats", h.HandleStats)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, _, err := h.service.Status(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(c, requestcontext.Now(ctx)))
}

// HandleListForSubject returns every record for the subject, including
// expired and revoked ones, each with its status at request time.
func (h *Handler) HandleListForSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := url.PathUnescape(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeEncoding, "malformed subject"))
		return
	}
	subject, err := domain.ParseSubjectID(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	creds, err := h.service.CredentialsFor(ctx, subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "list credentials failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	now := requestcontext.Now(ctx)
	out := make([]*CredentialResponse, len(creds))
	for i, c := range creds {
		out[i] = toCredentialResponse(c, now)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"subject": subject, "credentials": out})
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Revoke(ctx, id, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "revoke credential failed", "error", err, "request_id", requestID, "credential_id", id)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(c, requestcontext.Now(ctx)))
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
