package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	credmodels "trustscore/internal/credential/models"
	"trustscore/internal/issuance/metrics"
	"trustscore/internal/issuance/models"
	"trustscore/internal/issuance/store"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/audit"
	"trustscore/pkg/platform/tracer"
	"trustscore/pkg/requestcontext"
)

// CredentialAcceptor is the credential service's acceptance path.
type CredentialAcceptor interface {
	Accept(ctx context.Context, c *credmodels.Credential, sig []byte) (*credmodels.Credential, error)
	Digest(c *credmodels.Credential) ([]byte, codec.Digest, error)
	Catalog() *catalog.Catalog
}

// IssuerAuthorizer reports whether an issuer may attest a credential type.
type IssuerAuthorizer interface {
	IsAuthorized(ctx context.Context, issuer domain.IssuerID, credType catalog.Type) error
}

// Signer produces an issuer signature over a credential digest. Implementations
// may block on remote I/O and must honour ctx cancellation.
type Signer interface {
	Sign(ctx context.Context, issuer domain.IssuerID, digest codec.Digest) ([]byte, error)
}

type Option func(*Service)

const DefaultPendingTTL = 15 * time.Minute

// Service turns issuer requests into tracked credentials in two phases:
// RequestCredential reserves an id and returns the digest to sign, and
// Submit accepts the signature. Nothing reaches the credential store until
// a valid signature is submitted.
type Service struct {
	credentials CredentialAcceptor
	issuers     IssuerAuthorizer
	pending     store.Store
	pendingTTL  time.Duration
	tracer      tracer.Tracer
	metrics     *metrics.Metrics
	auditor     *audit.Logger
	logger      *slog.Logger
}

func New(credentials CredentialAcceptor, issuers IssuerAuthorizer, pending store.Store, opts ...Option) *Service {
	svc := &Service{
		credentials: credentials,
		issuers:     issuers,
		pending:     pending,
		pendingTTL:  DefaultPendingTTL,
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithPendingTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.pendingTTL = ttl
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// RequestCredential validates req and stores a draft for the issuer to sign.
// issuedAt is the request time and expiresAt follows from the catalog validity.
func (s *Service) RequestCredential(ctx context.Context, req models.Request) (d *models.Draft, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssuanceRequest,
		tracer.String(tracer.AttrCredentialType, string(req.Type)),
		tracer.String(tracer.AttrSubject, tracer.HashSubject(string(req.Subject))),
	)
	defer func() { span.End(err) }()

	issuer, err := domain.ParseIssuerID(string(req.Issuer))
	if err != nil {
		return nil, err
	}
	subject, err := domain.ParseSubjectID(string(req.Subject))
	if err != nil {
		return nil, err
	}
	entry, ok := s.credentials.Catalog().Lookup(req.Type)
	if !ok {
		return nil, dErrors.New(dErrors.CodeEncoding, "unknown credential type: "+string(req.Type))
	}
	if err := s.issuers.IsAuthorized(ctx, issuer, req.Type); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorizedIssuer) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer authorization")
	}

	now := requestcontext.Now(ctx).UTC().Truncate(time.Second)
	cred, err := credmodels.NewCredential(domain.NewCredentialID(), entry.Type, issuer, subject,
		now, now.Add(entry.Validity), entry.Weight)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeEncoding, "failed to build credential")
	}
	payload, digest, err := s.credentials.Digest(cred)
	if err != nil {
		return nil, err
	}

	d = &models.Draft{
		Credential:   cred,
		Payload:      payload,
		Digest:       digest,
		RequestedAt:  now,
		PendingUntil: now.Add(s.pendingTTL),
	}
	if err := s.pending.Save(ctx, d, s.pendingTTL); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateID, "credential id already pending")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store issuance request")
	}

	s.auditor.Log(ctx, audit.EventIssuanceRequested,
		"credential_id", cred.ID,
		"credential_type", string(cred.Type),
		"subject", cred.Subject,
		"issuer", cred.Issuer,
	)
	if s.metrics != nil {
		s.metrics.IncrementDraft(string(cred.Type))
	}
	return d, nil
}

// Draft returns a pending draft. Unknown and lapsed drafts are CodeNotFound.
func (s *Service) Draft(ctx context.Context, id domain.CredentialID) (*models.Draft, error) {
	d, err := s.pending.Find(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.ErrDraftNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load issuance request")
	}
	if !d.IsPendingAt(requestcontext.Now(ctx)) {
		s.discard(ctx, id)
		return nil, models.ErrDraftNotFound
	}
	return d, nil
}

// Submit accepts sig for a pending draft. The signature is verified against
// the re-encoded draft and issuer authorization is checked again, since the
// issuer may have been deactivated while the draft was pending.
func (s *Service) Submit(ctx context.Context, id domain.CredentialID, sig []byte) (c *credmodels.Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssuanceSubmit)
	defer func() {
		if s.metrics != nil {
			s.metrics.IncrementSubmission(outcome(err))
		}
		span.End(err)
	}()

	d, err := s.Draft(ctx, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrCredentialType, string(d.Credential.Type)))

	c, err = s.credentials.Accept(ctx, d.Credential, sig)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicateID) {
			s.discard(ctx, id)
		}
		return nil, err
	}
	s.discard(ctx, id)
	return c, nil
}

// Issue runs the full flow with signer: request, await the signature, submit.
// A signer failure or cancellation leaves the credential store untouched.
func (s *Service) Issue(ctx context.Context, req models.Request, signer Signer) (*credmodels.Credential, []byte, error) {
	d, err := s.RequestCredential(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	sig, err := s.sign(ctx, signer, d)
	if err != nil {
		s.discard(ctx, d.ID())
		return nil, nil, err
	}

	c, err := s.Submit(ctx, d.ID(), sig)
	if err != nil {
		return nil, nil, err
	}
	return c, sig, nil
}

func (s *Service) sign(ctx context.Context, signer Signer, d *models.Draft) (sig []byte, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssuanceSign,
		tracer.String(tracer.AttrCredentialType, string(d.Credential.Type)),
	)
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSignLatency(time.Since(start).Seconds())
		}
		span.End(err)
	}()

	sig, err = signer.Sign(ctx, d.Credential.Issuer, d.Digest)
	if err == nil {
		return sig, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "signer timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "signing cancelled")
	}
	return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "signer failed")
}

// discard drops a draft. Failure only delays eviction to the TTL.
func (s *Service) discard(ctx context.Context, id domain.CredentialID) {
	if err := s.pending.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.logger.WarnContext(ctx, "failed to delete issuance draft",
			"error", err,
			"credential_id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func outcome(err error) string {
	if err == nil {
		return "accepted"
	}
	return string(dErrors.CodeOf(err))
}
