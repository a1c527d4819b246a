package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/issuer/models"
	"trustscore/internal/issuer/service"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/httputil"
	"trustscore/pkg/requestcontext"
)

// Service defines the issuer registry operations used by the handler.
type Service interface {
	Register(ctx context.Context, cmd service.RegisterCommand) (*models.Record, error)
	Get(ctx context.Context, address domain.IssuerID) (*models.Record, error)
	List(ctx context.Context) ([]*models.Record, error)
	Activate(ctx context.Context, address domain.IssuerID) (*models.Record, error)
	Deactivate(ctx context.Context, address domain.IssuerID) (*models.Record, error)
	Authorize(ctx context.Context, address domain.IssuerID, types []catalog.Type) (*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registry routes. Callers wrap r with admin auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/issuers", h.HandleRegister)
	r.Get("/issuers", h.HandleList)
	r.Get("/issuers/{address}", h.HandleGet)
	r.Post("/issuers/{address}/activate", h.HandleActivate)
	r.Post("/issuers/{address}/deactivate", h.HandleDeactivate)
	r.Post("/issuers/{address}/authorizations", h.HandleAuthorize)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterIssuerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Register(ctx, req.ToCommand())
	if err != nil {
		h.logger.WarnContext(ctx, "register issuer failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIssuerResponse(record))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list issuers failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	out := make([]*IssuerResponse, len(records))
	for i, rec := range records {
		out[i] = toIssuerResponse(rec)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"issuers": out})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withAddress(w, r, "get issuer", h.service.Get)
}

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.withAddress(w, r, "activate issuer", h.service.Activate)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.withAddress(w, r, "deactivate issuer", h.service.Deactivate)
}

func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	address, err := domain.ParseIssuerID(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AuthorizeIssuerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Authorize(ctx, address, toTypes(req.Types))
	if err != nil {
		h.logger.WarnContext(ctx, "authorize issuer failed", "error", err, "request_id", requestID, "issuer", address)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssuerResponse(record))
}

func (h *Handler) withAddress(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, domain.IssuerID) (*models.Record, error)) {
	ctx := r.Context()
	address, err := domain.ParseIssuerID(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := fn(ctx, address)
	if err != nil {
		h.logger.WarnContext(ctx, op+" failed", "error", err, "request_id", requestcontext.RequestID(ctx), "issuer", address)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIssuerResponse(record))
}
