package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	credservice "trustscore/internal/credential/service"
	"trustscore/internal/credential/signature"
	credstore "trustscore/internal/credential/store"
	"trustscore/internal/issuance/service"
	"trustscore/internal/issuance/store"
	issuerservice "trustscore/internal/issuer/service"
	issuerstore "trustscore/internal/issuer/store"
	jwttoken "trustscore/internal/jwt_token"
	"trustscore/pkg/platform/middleware/auth"
	"trustscore/pkg/platform/middleware/requesttime"
	"trustscore/pkg/requestcontext"
	"trustscore/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	credentials *credstore.InMemoryStore
	signer      *signature.LocalSigner
	issuerToken string
	otherToken  string
	adminToken  string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := context.Background()
	s.signer = testutil.NewIssuer(s.T())
	other := testutil.NewIssuer(s.T())

	issuers := issuerservice.New(issuerstore.NewInMemory())
	for _, signer := range []*signature.LocalSigner{s.signer, other} {
		_, err := issuers.Register(ctx, issuerservice.RegisterCommand{
			Address:     string(signer.DID()),
			DisplayName: "Issuer",
			TrustScore:  70,
			Types:       []catalog.Type{catalog.Employment},
		})
		s.Require().NoError(err)
	}

	s.credentials = credstore.NewInMemory()
	creds := credservice.New(s.credentials, signature.NewKeyResolver(8), issuers)
	svc := service.New(creds, issuers, store.NewInMemory())

	tokens := jwttoken.NewJWTService("issuance-handler-key", "trustscore", time.Hour)
	var err error
	s.issuerToken, err = tokens.GenerateToken(requestcontext.RoleIssuer, string(s.signer.DID()), time.Now())
	s.Require().NoError(err)
	s.otherToken, err = tokens.GenerateToken(requestcontext.RoleIssuer, string(other.DID()), time.Now())
	s.Require().NoError(err)
	s.adminToken, err = tokens.GenerateToken(requestcontext.RoleAdmin, "ops", time.Now())
	s.Require().NoError(err)

	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(tokens, logger, requestcontext.RoleIssuer))
		New(svc, logger, WithSigner(s.signer)).Register(r)
	})
	s.router = r
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

func (s *HandlerSuite) create(token string) *DraftResponse {
	body := fmt.Sprintf(`{"subject":%q,"type":"employment"}`, testutil.TestSubjects.Alice)
	rec := s.do(http.MethodPost, "/issuance/requests", body, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var d DraftResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &d))
	return &d
}

func (s *HandlerSuite) signDraft(d *DraftResponse) string {
	digest, err := codec.ParseDigest(d.Digest)
	s.Require().NoError(err)
	sig, err := s.signer.Sign(context.Background(), s.signer.DID(), digest)
	s.Require().NoError(err)
	return signature.Encode(sig)
}

func (s *HandlerSuite) TestTwoPhaseIssuance() {
	d := s.create(s.issuerToken)
	s.Equal(string(s.signer.DID()), d.Issuer)
	s.Equal("EMPLOYMENT", d.Type)
	s.Equal(100, d.Weight)

	body := fmt.Sprintf(`{"signature":%q}`, s.signDraft(d))
	rec := s.do(http.MethodPost, "/issuance/requests/"+d.ID+"/signature", body, s.issuerToken)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var issued IssuedResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &issued))
	s.Equal(d.ID, issued.ID)

	creds, err := s.credentials.ListBySubject(context.Background(), testutil.TestSubjects.Alice)
	s.Require().NoError(err)
	s.Len(creds, 1)

	rec = s.do(http.MethodPost, "/issuance/requests/"+d.ID+"/signature", body, s.issuerToken)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestAuth() {
	body := fmt.Sprintf(`{"subject":%q,"type":"EMPLOYMENT"}`, testutil.TestSubjects.Alice)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/issuance/requests", body, "").Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/issuance/requests", body, s.adminToken).Code)
}

func (s *HandlerSuite) TestIssuerCannotActForAnother() {
	body := fmt.Sprintf(`{"subject":%q,"type":"EMPLOYMENT","issuer":%q}`, testutil.TestSubjects.Alice, s.signer.DID())
	rec := s.do(http.MethodPost, "/issuance/requests", body, s.otherToken)
	s.Equal(http.StatusForbidden, rec.Code)

	d := s.create(s.issuerToken)
	sigBody := fmt.Sprintf(`{"signature":%q}`, s.signDraft(d))
	rec = s.do(http.MethodPost, "/issuance/requests/"+d.ID+"/signature", sigBody, s.otherToken)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestRejections() {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing subject", `{"type":"EMPLOYMENT"}`, http.StatusBadRequest, "validation_error"},
		{"malformed subject", `{"subject":"alice","type":"EMPLOYMENT"}`, http.StatusBadRequest, "encoding_error"},
		{"unknown type", `{"subject":"did:web:alice.example","type":"LOTTERY_WIN"}`, http.StatusBadRequest, "encoding_error"},
		{"type not authorized", `{"subject":"did:web:alice.example","type":"CEX_HISTORY"}`, http.StatusForbidden, "unauthorized_issuer"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/issuance/requests", tt.body, s.issuerToken)
			s.Equal(tt.status, rec.Code, rec.Body.String())
			s.Contains(rec.Body.String(), tt.code)
		})
	}
}

func (s *HandlerSuite) TestBadSignature() {
	d := s.create(s.issuerToken)
	rec := s.do(http.MethodPost, "/issuance/requests/"+d.ID+"/signature", `{"signature":"0xdeadbeef"}`, s.issuerToken)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "invalid_signature")
}

func (s *HandlerSuite) TestOneShotIssuance() {
	body := fmt.Sprintf(`{"subject":%q,"type":"EMPLOYMENT"}`, testutil.TestSubjects.Alice)
	rec := s.do(http.MethodPost, "/issuance/credentials", body, s.issuerToken)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var issued IssuedResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &issued))
	s.NotEmpty(issued.Signature)

	creds, err := s.credentials.ListBySubject(context.Background(), testutil.TestSubjects.Alice)
	s.Require().NoError(err)
	s.Len(creds, 1)
}

func (s *HandlerSuite) TestOneShotIssuanceSignerRefuses() {
	// The custodial signer only holds the first issuer's key.
	body := fmt.Sprintf(`{"subject":%q,"type":"EMPLOYMENT"}`, testutil.TestSubjects.Alice)
	rec := s.do(http.MethodPost, "/issuance/credentials", body, s.otherToken)
	s.Equal(http.StatusForbidden, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), "unauthorized_issuer")

	creds, err := s.credentials.ListBySubject(context.Background(), testutil.TestSubjects.Alice)
	s.Require().NoError(err)
	s.Empty(creds)
}

func TestOneShotRouteRequiresSigner(t *testing.T) {
	r := chi.NewRouter()
	New(nil, slog.Default()).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/issuance/credentials", strings.NewReader("{}")))
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected route to be absent, got %d", rec.Code)
	}
}
