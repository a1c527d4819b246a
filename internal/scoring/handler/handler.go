package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trustscore/contracts/score"
	"trustscore/internal/collateral"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/httputil"
	"trustscore/pkg/requestcontext"
)

// Service is the scoring read side.
type Service interface {
	Details(ctx context.Context, subject domain.SubjectID) (*score.Details, error)
	CollateralFactor(score int) int
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/subjects/{subject}/score", h.HandleScore)
	r.Get("/collateral", h.HandleCollateral)
	r.Get("/collateral/tiers", h.HandleTiers)
}

// HandleScore returns getScoreDetails for the subject in the path. The
// subject DID may be URL-escaped.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := subjectParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	details, err := h.service.Details(ctx, subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "score computation failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) HandleCollateral(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scoreValue, err := strconv.Atoi(q.Get("score"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "score must be an integer"))
		return
	}
	resp := score.Collateral{
		Score:            scoreValue,
		CollateralFactor: h.service.CollateralFactor(scoreValue),
	}
	if raw := q.Get("collateral"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "collateral must be an integer"))
			return
		}
		limit, err := collateral.BorrowLimit(amount, scoreValue)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp.Collateral = &amount
		resp.BorrowLimit = &limit
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleTiers(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tiers": collateral.Tiers()})
}

func subjectParam(r *http.Request) (domain.SubjectID, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "subject"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeEncoding, "malformed subject")
	}
	return domain.ParseSubjectID(raw)
}
