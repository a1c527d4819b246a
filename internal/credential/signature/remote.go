package signature

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"trustscore/internal/credential/codec"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/circuit"
)

const defaultSignerTimeout = 5 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteSigner delegates signing to an external signer service:
//
//	POST {baseURL}/sign {"issuer": "did:key:...", "digest": "<hex>"}
//	200 {"signature": "0x<hex>"}
//
// Calls are bounded by a per-call timeout and tracked by a circuit breaker.
// While the circuit is open calls fail fast with unavailable; after the
// cooldown a single half-open call is let through to test the signer.
type RemoteSigner struct {
	baseURL string
	client  HTTPDoer
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// RemoteOption configures a RemoteSigner.
type RemoteOption func(*RemoteSigner)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c HTTPDoer) RemoteOption {
	return func(s *RemoteSigner) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds each signing call.
func WithTimeout(d time.Duration) RemoteOption {
	return func(s *RemoteSigner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) RemoteOption {
	return func(s *RemoteSigner) {
		if b != nil {
			s.breaker = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RemoteOption {
	return func(s *RemoteSigner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRemoteSigner creates a signer client for baseURL.
func NewRemoteSigner(baseURL string, opts ...RemoteOption) *RemoteSigner {
	s := &RemoteSigner{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultSignerTimeout,
		breaker: circuit.New("remote_signer"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		// Per-call deadlines come from the request context.
		s.client = &http.Client{}
	}
	return s
}

type signRequest struct {
	Issuer string `json:"issuer"`
	Digest string `json:"digest"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

func (s *RemoteSigner) Sign(ctx context.Context, issuer domain.IssuerID, digest codec.Digest) ([]byte, error) {
	if !s.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "signer circuit open")
	}

	sig, err := s.sign(ctx, issuer, digest)
	if err != nil {
		// Only transport and 5xx failures say anything about signer health.
		if dErrors.HasCode(err, dErrors.CodeUnavailable) || dErrors.HasCode(err, dErrors.CodeTimeout) {
			if change := s.breaker.RecordFailure(); change.Opened {
				s.logger.ErrorContext(ctx, "circuit breaker opened",
					"circuit", s.breaker.Name(),
					"error", err,
				)
			}
		}
		return nil, err
	}

	if change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "circuit breaker closed",
			"circuit", s.breaker.Name(),
		)
	}
	return sig, nil
}

func (s *RemoteSigner) sign(ctx context.Context, issuer domain.IssuerID, digest codec.Digest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(signRequest{Issuer: issuer.String(), Digest: digest.Hex()})
	if err != nil {
		return nil, fmt.Errorf("marshal sign request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "signer timeout")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "signer request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read signer response")
	}

	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeUnauthorizedIssuer, "signer has no key for "+issuer.String())
	case resp.StatusCode >= 500:
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("signer returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unexpected signer status %d", resp.StatusCode))
	}

	var out signResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed signer response")
	}
	sig := Decode(out.Signature)
	if sig == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "signer returned a malformed signature")
	}
	return sig, nil
}
