package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	credhandler "trustscore/internal/credential/handler"
	issuancehandler "trustscore/internal/issuance/handler"
	issuerhandler "trustscore/internal/issuer/handler"
	"trustscore/internal/platform/metrics"
	scoringhandler "trustscore/internal/scoring/handler"
	"trustscore/pkg/platform/middleware/auth"
	"trustscore/pkg/platform/middleware/request"
	"trustscore/pkg/platform/middleware/requesttime"
	"trustscore/pkg/platform/validation"
	"trustscore/pkg/requestcontext"
)

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(a.log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(a.log))
	r.Use(request.Instrument(request.NewMetrics(a.registry)))
	r.Use(request.BodyLimit(validation.MaxBodySize))
	r.Use(request.ContentTypeJSON)

	a.health.Register(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(a.registry))

	credentials := credhandler.New(a.credentials, a.log)
	credentials.Register(r)
	scoringhandler.New(a.scoring, a.log).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(a.tokens, a.log, requestcontext.RoleAdmin))
		credentials.RegisterAdmin(r)
		issuerhandler.New(a.issuers, a.log).Register(r)
	})

	var issuanceOpts []issuancehandler.Option
	if a.signer != nil {
		issuanceOpts = append(issuanceOpts, issuancehandler.WithSigner(a.signer))
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(a.tokens, a.log, requestcontext.RoleIssuer))
		issuancehandler.New(a.issuance, a.log, issuanceOpts...).Register(r)
	})

	return r
}
