package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	"trustscore/internal/credential/signature"
	"trustscore/internal/platform/config"
	"trustscore/internal/platform/logger"
	"trustscore/pkg/requestcontext"
	"trustscore/pkg/testutil"
)

func newTestApp(t *testing.T) (*app, http.Handler) {
	t.Helper()
	t.Setenv("TRUSTSCORE_ENV", "test")
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, logger.NewWithWriter(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a, a.router()
}

func call(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInMemoryFallbacks(t *testing.T) {
	a, h := newTestApp(t)

	// Only the in-process draft sweeper runs without Redis or Kafka.
	require.Len(t, a.workers, 1)
	assert.Equal(t, "draft_cleanup", a.workers[0].name)
	assert.Nil(t, a.signer)

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/metrics", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/stats", "", "").Code)
}

func TestIssueAndScoreThroughRouter(t *testing.T) {
	a, h := newTestApp(t)
	now := time.Now()
	signer := testutil.NewIssuer(t)
	subject := testutil.TestSubjects.Alice

	admin, err := a.tokens.GenerateToken(requestcontext.RoleAdmin, "ops", now)
	require.NoError(t, err)
	issuer, err := a.tokens.GenerateToken(requestcontext.RoleIssuer, string(signer.DID()), now)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"address":%q,"display_name":"Acme Payroll","trust_score":80,"credential_types":[%q]}`,
		signer.DID(), catalog.Employment)
	rec := call(t, h, http.MethodPost, "/issuers", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/issuance/requests", issuer,
		fmt.Sprintf(`{"subject":%q,"type":"EMPLOYMENT"}`, subject))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var draft struct {
		ID     string `json:"id"`
		Digest string `json:"digest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))

	digest, err := codec.ParseDigest(draft.Digest)
	require.NoError(t, err)
	sig, err := signer.Sign(context.Background(), signer.DID(), digest)
	require.NoError(t, err)

	rec = call(t, h, http.MethodPost, "/issuance/requests/"+draft.ID+"/signature", issuer,
		fmt.Sprintf(`{"signature":%q}`, signature.Encode(sig)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/credentials/"+draft.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"active"`)

	rec = call(t, h, http.MethodGet, "/subjects/"+string(subject)+"/score", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var details map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Greater(t, details["score"], float64(0))

	rec = call(t, h, http.MethodGet, "/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
}
