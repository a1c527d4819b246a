package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/models"
	"trustscore/internal/credential/service"
	"trustscore/internal/credential/signature"
	"trustscore/internal/credential/store"
	jwttoken "trustscore/internal/jwt_token"
	"trustscore/pkg/platform/middleware/auth"
	"trustscore/pkg/platform/middleware/requesttime"
	"trustscore/pkg/requestcontext"
	"trustscore/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router     http.Handler
	store      *store.InMemoryStore
	adminToken string
	issuerTok  string
	now        time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tokens := jwttoken.NewJWTService("credential-handler-key", "trustscore", time.Hour)
	var err error
	s.adminToken, err = tokens.GenerateToken(requestcontext.RoleAdmin, "ops", time.Now())
	s.Require().NoError(err)
	s.issuerTok, err = tokens.GenerateToken(requestcontext.RoleIssuer, "did:key:zIssuer", time.Now())
	s.Require().NoError(err)

	s.now = testutil.FixedNow.Add(time.Hour)
	s.store = store.NewInMemory()
	svc := service.New(s.store, signature.NewKeyResolver(8), nil)
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Use(requesttime.WithClock(func() time.Time { return s.now }))
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(tokens, logger, requestcontext.RoleAdmin))
		h.RegisterAdmin(r)
	})
	s.router = r
}

func (s *HandlerSuite) track(c *models.Credential) {
	s.Require().NoError(s.store.Track(context.Background(), c))
}

func (s *HandlerSuite) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestGetCredential() {
	c := testutil.NewCredential(catalog.CexHistory).Build()
	s.track(c)

	rec := s.do(http.MethodGet, "/credentials/"+string(c.ID), "", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp CredentialResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(string(c.ID), resp.ID)
	s.Equal("active", resp.Status)
	s.Equal(c.IssuedAt.Unix(), resp.IssuedAt)
	s.Nil(resp.RevokedAt)
}

func (s *HandlerSuite) TestGetCredential_ReportsExpiry() {
	c := testutil.NewCredential(catalog.CexHistory).Build()
	s.track(c)
	s.now = c.ExpiresAt.Add(time.Second)

	rec := s.do(http.MethodGet, "/credentials/"+string(c.ID), "", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"expired"`)
}

func (s *HandlerSuite) TestGetCredential_Errors() {
	rec := s.do(http.MethodGet, "/credentials/not-an-id", "", "")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/credentials/vc_7f8d5a3c-7f27-4c8e-9a53-6f1c6a1b3e10", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestListForSubjectIncludesAllStatuses() {
	active := testutil.NewCredential(catalog.Employment).Build()
	revoked := testutil.NewCredential(catalog.CexHistory).RevokedAt(testutil.FixedNow, "fraud").Build()
	other := testutil.NewCredential(catalog.CexHistory).ForSubject(testutil.TestSubjects.Bob).Build()
	s.track(active)
	s.track(revoked)
	s.track(other)

	path := "/subjects/" + url.PathEscape(string(testutil.TestSubjects.Alice)) + "/credentials"
	rec := s.do(http.MethodGet, path, "", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Credentials []CredentialResponse `json:"credentials"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Credentials, 2)
	statuses := map[string]string{}
	for _, c := range body.Credentials {
		statuses[c.ID] = c.Status
	}
	s.Equal("active", statuses[string(active.ID)])
	s.Equal("revoked", statuses[string(revoked.ID)])
}

func (s *HandlerSuite) TestListForSubject_Malformed() {
	rec := s.do(http.MethodGet, "/subjects/alice/credentials", "", "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "encoding_error")
}

func (s *HandlerSuite) TestRevoke() {
	c := testutil.NewCredential(catalog.CexHistory).Build()
	s.track(c)
	path := "/credentials/" + string(c.ID) + "/revoke"

	rec := s.do(http.MethodPost, path, `{"reason":"fraud"}`, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, path, `{"reason":"fraud"}`, s.issuerTok)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, path, `{"reason":"  "}`, s.adminToken)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path, `{"reason":"fraud"}`, s.adminToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp CredentialResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("revoked", resp.Status)
	s.Require().NotNil(resp.RevocationReason)
	s.Equal("fraud", *resp.RevocationReason)

	rec = s.do(http.MethodPost, path, `{"reason":"again"}`, s.adminToken)
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "already_revoked")
}

func (s *HandlerSuite) TestStats() {
	s.track(testutil.NewCredential(catalog.CexHistory).Build())
	s.track(testutil.NewCredential(catalog.Employment).ForSubject(testutil.TestSubjects.Bob).RevokedAt(testutil.FixedNow, "fraud").Build())

	rec := s.do(http.MethodGet, "/stats", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/stats", "", s.adminToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats models.Stats
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	s.Equal(models.Stats{Total: 2, Active: 1, Revoked: 1, DistinctSubjects: 2}, stats)
}
