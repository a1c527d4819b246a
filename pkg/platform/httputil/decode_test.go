package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "trustscore/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revokeBody struct {
	Reason string `json:"reason"`

	steps []string
}

func (b *revokeBody) Sanitize()  { b.steps = append(b.steps, "sanitize"); b.Reason = strings.TrimSpace(b.Reason) }
func (b *revokeBody) Normalize() { b.steps = append(b.steps, "normalize"); b.Reason = strings.ToLower(b.Reason) }
func (b *revokeBody) Validate() error {
	b.steps = append(b.steps, "validate")
	if b.Reason == "" {
		return errors.New("reason is required")
	}
	return nil
}

type issuerBody struct {
	Address string `json:"address"`
}

func (b *issuerBody) Validate() error {
	if !strings.HasPrefix(b.Address, "did:") {
		return dErrors.New(dErrors.CodeInvalidInput, "address must be a DID")
	}
	return nil
}

func decodeRecorder[T any](t *testing.T, body io.Reader, prepare bool) (*T, *httptest.ResponseRecorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := httptest.NewRequest(http.MethodPost, "/", body)
	w := httptest.NewRecorder()
	if prepare {
		got, _ := DecodeAndPrepare[T](w, r, logger, r.Context(), "req-1")
		return got, w
	}
	got, _ := DecodeJSON[T](w, r, logger, r.Context(), "req-1")
	return got, w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSONRejects(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"reason":`, http.StatusBadRequest, "bad_request"},
		{"empty", ``, http.StatusBadRequest, "bad_request"},
		{"trailing value", `{"reason":"a"}{"reason":"b"}`, http.StatusBadRequest, "bad_request"},
		{"wrong type", `{"reason":42}`, http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, w := decodeRecorder[revokeBody](t, strings.NewReader(tc.body), false)
			assert.Nil(t, got)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorBody(t, w).Error)
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"`+strings.Repeat("x", 64)+`"}`))
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	got, ok := DecodeJSON[revokeBody](w, r, logger, r.Context(), "req-1")

	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "payload_too_large", errorBody(t, w).Error)
}

func TestDecodeAndPrepareRunsHooksInOrder(t *testing.T) {
	got, w := decodeRecorder[revokeBody](t, strings.NewReader(`{"reason":"  Key Compromise "}`), true)

	require.NotNil(t, got)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "key compromise", got.Reason)
	assert.Equal(t, []string{"sanitize", "normalize", "validate"}, got.steps)
}

func TestDecodeAndPrepareValidationFailures(t *testing.T) {
	t.Run("plain error becomes validation_error", func(t *testing.T) {
		got, w := decodeRecorder[revokeBody](t, strings.NewReader(`{"reason":"   "}`), true)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := errorBody(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, "reason is required", resp.Description)
	})

	t.Run("domain code is kept", func(t *testing.T) {
		got, w := decodeRecorder[issuerBody](t, strings.NewReader(`{"address":"0xabc"}`), true)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := errorBody(t, w)
		assert.Equal(t, "bad_request", resp.Error)
		assert.Equal(t, "address must be a DID", resp.Description)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		desc   string
	}{
		{dErrors.New(dErrors.CodeInvalidSignature, "bad sig"), http.StatusUnprocessableEntity, "invalid_signature", "bad sig"},
		{dErrors.New(dErrors.CodeDuplicateID, "taken"), http.StatusConflict, "duplicate_id", "taken"},
		{dErrors.New(dErrors.CodeUnauthorizedIssuer, "nope"), http.StatusForbidden, "unauthorized_issuer", "nope"},
		{dErrors.New(dErrors.CodeInternal, "pq: connection reset"), http.StatusInternalServerError, "internal_error", ""},
		{errors.New("raw"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			resp := errorBody(t, w)
			assert.Equal(t, tc.code, resp.Error)
			assert.Equal(t, tc.desc, resp.Description)
		})
	}
}
