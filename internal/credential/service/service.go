package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/codec"
	"trustscore/internal/credential/metrics"
	"trustscore/internal/credential/models"
	"trustscore/internal/credential/store"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/audit"
	"trustscore/pkg/platform/sentinel"
	pkgsync "trustscore/pkg/platform/sync"
	"trustscore/pkg/requestcontext"
)

// Verifier checks an issuer signature over a credential digest.
type Verifier interface {
	VerifyIssuer(ctx context.Context, digest codec.Digest, sig []byte, issuer domain.IssuerID) bool
}

// IssuerAuthorizer reports whether an issuer is active and authorized for a type.
// Error Contract: returns a CodeUnauthorizedIssuer domain error when not authorized.
type IssuerAuthorizer interface {
	IsAuthorized(ctx context.Context, issuer domain.IssuerID, credType catalog.Type) error
}

// Locker serializes work on a key across service instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type Option func(*Service)

const defaultLockTTL = 10 * time.Second

// Service owns credential acceptance and lifecycle. It is the only writer to
// the credential store.
type Service struct {
	store    store.Store
	codec    *codec.Codec
	catalog  *catalog.Catalog
	verifier Verifier
	issuers  IssuerAuthorizer
	locks    *pkgsync.ShardedMutex
	locker   Locker
	lockTTL  time.Duration
	auditor  *audit.Logger
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(st store.Store, verifier Verifier, issuers IssuerAuthorizer, opts ...Option) *Service {
	svc := &Service{
		store:    st,
		catalog:  catalog.Default(),
		verifier: verifier,
		issuers:  issuers,
		locks:    pkgsync.NewShardedMutex(),
		lockTTL:  defaultLockTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.codec = codec.New(svc.catalog)
	return svc
}

// WithCatalog replaces the default credential catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditor sets the audit logger.
func WithAuditor(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDistributedLock adds a cross-instance lock around Track, held for at most ttl.
func WithDistributedLock(l Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// Catalog returns the catalog the service validates against.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Digest encodes and hashes c's signable fields.
func (s *Service) Digest(c *models.Credential) ([]byte, codec.Digest, error) {
	return s.codec.Digest(c.Fields())
}

// Accept verifies c and tracks it. All checks run before the store is
// touched, so a rejected credential leaves no trace beyond the audit log.
func (s *Service) Accept(ctx context.Context, c *models.Credential, sig []byte) (*models.Credential, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveAcceptLatency(time.Since(start).Seconds())
		}
	}()

	accepted, err := s.accept(ctx, c, sig)
	if err != nil {
		s.reject(ctx, c, err)
		return nil, err
	}

	s.auditor.Log(ctx, audit.EventCredentialTracked,
		"credential_id", accepted.ID,
		"credential_type", string(accepted.Type),
		"subject", accepted.Subject,
		"issuer", accepted.Issuer,
		"decision", "accepted",
	)
	if s.metrics != nil {
		s.metrics.IncrementTracked(string(accepted.Type))
	}
	return accepted, nil
}

func (s *Service) accept(ctx context.Context, c *models.Credential, sig []byte) (*models.Credential, error) {
	if c == nil {
		return nil, dErrors.New(dErrors.CodeEncoding, "credential is required")
	}
	entry, ok := s.catalog.Lookup(c.Type)
	if !ok {
		return nil, dErrors.New(dErrors.CodeEncoding, "unknown credential type: "+string(c.Type))
	}
	if c.Weight != entry.Weight {
		return nil, dErrors.New(dErrors.CodeEncoding, "weight does not match catalog for "+string(c.Type))
	}
	if c.IsRevoked() {
		return nil, dErrors.New(dErrors.CodeEncoding, "new credentials cannot carry revocation state")
	}
	if _, err := domain.ParseSubjectID(string(c.Subject)); err != nil {
		return nil, err
	}
	_, digest, err := s.codec.Digest(c.Fields())
	if err != nil {
		return nil, err
	}
	if !s.verifier.VerifyIssuer(ctx, digest, sig, c.Issuer) {
		return nil, dErrors.New(dErrors.CodeInvalidSignature, "signature does not match issuer")
	}
	if err := s.issuers.IsAuthorized(ctx, c.Issuer, c.Type); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorizedIssuer) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer authorization")
	}

	record := c.Clone()
	record.Signature = append([]byte(nil), sig...)

	err = s.withLock(ctx, string(record.ID), func() error {
		return s.store.Track(ctx, record)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateID, "credential id already tracked: "+record.ID.String())
		}
		if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeUnavailable) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to track credential")
	}
	return record, nil
}

// withLock serializes fn per credential id across instances when a
// distributed lock is configured, and in process always. The distributed lock
// is taken first so ids sharing a shard never wait on its round trip.
func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "credential:"+key, s.lockTTL)
		if err != nil {
			return err
		}
		defer release()
	}
	return s.locks.Do(key, fn)
}

func (s *Service) reject(ctx context.Context, c *models.Credential, err error) {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.IncrementRejected(string(code))
	}
	if c == nil {
		return
	}
	s.auditor.Log(ctx, audit.EventCredentialRejected,
		"credential_id", c.ID,
		"credential_type", string(c.Type),
		"subject", c.Subject,
		"issuer", c.Issuer,
		"decision", "rejected",
		"reason", string(code),
	)
}

// Status returns the stored record and its status at the request time.
func (s *Service) Status(ctx context.Context, id domain.CredentialID) (*models.Credential, models.Status, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential")
	}
	return c, c.StatusAt(requestcontext.Now(ctx)), nil
}

// Revoke marks a credential revoked. A second revocation fails with
// CodeAlreadyRevoked and leaves the original RevokedAt in place.
func (s *Service) Revoke(ctx context.Context, id domain.CredentialID, reason string) (*models.Credential, error) {
	if reason == "" || len(reason) > models.MaxRevocationReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, "revocation reason must be 1-256 bytes")
	}
	now := requestcontext.Now(ctx).UTC().Truncate(time.Second)

	var revoked *models.Credential
	err := s.locks.Do(string(id), func() error {
		var err error
		revoked, err = s.store.Revoke(ctx, id, now, reason)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return nil, dErrors.New(dErrors.CodeAlreadyRevoked, "credential already revoked")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	s.auditor.Log(ctx, audit.EventCredentialRevoked,
		"credential_id", revoked.ID,
		"credential_type", string(revoked.Type),
		"subject", revoked.Subject,
		"issuer", revoked.Issuer,
		"decision", "revoked",
		"reason", reason,
	)
	if s.metrics != nil {
		s.metrics.IncrementRevoked(string(revoked.Type))
	}
	return revoked, nil
}

// CredentialsFor returns every record for subject regardless of status.
func (s *Service) CredentialsFor(ctx context.Context, subject domain.SubjectID) ([]*models.Credential, error) {
	creds, err := s.store.ListBySubject(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// Stats counts credentials by status at the request time.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := s.store.Stats(ctx, requestcontext.Now(ctx))
	if err != nil {
		return models.Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats")
	}
	return stats, nil
}
