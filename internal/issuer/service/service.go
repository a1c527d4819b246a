package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/issuer/metrics"
	"trustscore/internal/issuer/models"
	"trustscore/internal/issuer/store"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/audit"
	"trustscore/pkg/platform/sentinel"
	pkgsync "trustscore/pkg/platform/sync"
	"trustscore/pkg/requestcontext"
)

// RegisterCommand carries the fields for a new issuer registration.
type RegisterCommand struct {
	Address     string
	DisplayName string
	TrustScore  int
	Types       []catalog.Type
}

type Option func(*Service)

// Service manages issuer registrations and answers authorization queries for
// credential acceptance.
type Service struct {
	store   store.Store
	catalog *catalog.Catalog
	locks   *pkgsync.ShardedMutex
	auditor *audit.Logger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(st store.Store, opts ...Option) *Service {
	svc := &Service{
		store:   st,
		catalog: catalog.Default(),
		locks:   pkgsync.NewShardedMutex(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*models.Record, error) {
	address, err := domain.ParseIssuerID(cmd.Address)
	if err != nil {
		return nil, err
	}
	if err := s.validateTypes(cmd.Types); err != nil {
		return nil, err
	}
	record, err := models.NewRecord(address, cmd.DisplayName, cmd.TrustScore, cmd.Types, now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "issuer already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register issuer")
	}

	s.auditor.Log(ctx, audit.EventIssuerRegistered,
		"issuer", record.Address,
		"display_name", record.DisplayName,
		"trust_score", record.TrustScore,
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, address domain.IssuerID) (*models.Record, error) {
	record, err := s.store.FindByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
	}
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	return records, nil
}

func (s *Service) Activate(ctx context.Context, address domain.IssuerID) (*models.Record, error) {
	record, err := s.mutate(ctx, address, func(r *models.Record, now time.Time) error {
		return r.Activate(now)
	})
	if err != nil {
		return nil, err
	}
	s.auditor.Log(ctx, audit.EventIssuerActivated, "issuer", address)
	if s.metrics != nil {
		s.metrics.IncrementStateChange(true)
	}
	return record, nil
}

// Deactivate stops the issuer's future credentials from being accepted.
// Credentials already tracked are unaffected.
func (s *Service) Deactivate(ctx context.Context, address domain.IssuerID) (*models.Record, error) {
	record, err := s.mutate(ctx, address, func(r *models.Record, now time.Time) error {
		return r.Deactivate(now)
	})
	if err != nil {
		return nil, err
	}
	s.auditor.Log(ctx, audit.EventIssuerDeactivated, "issuer", address)
	if s.metrics != nil {
		s.metrics.IncrementStateChange(false)
	}
	return record, nil
}

// Authorize grants the issuer the given credential types in addition to those
// it already holds.
func (s *Service) Authorize(ctx context.Context, address domain.IssuerID, types []catalog.Type) (*models.Record, error) {
	if len(types) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one credential type is required")
	}
	if err := s.validateTypes(types); err != nil {
		return nil, err
	}
	record, err := s.mutate(ctx, address, func(r *models.Record, now time.Time) error {
		r.Authorize(types, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		s.auditor.Log(ctx, audit.EventIssuerAuthorized, "issuer", address, "credential_type", string(t))
	}
	return record, nil
}

// IsAuthorized returns nil when issuer is registered, active, and authorized
// for credType. Any other outcome is a CodeUnauthorizedIssuer error, except
// store failures which surface as CodeInternal.
func (s *Service) IsAuthorized(ctx context.Context, issuer domain.IssuerID, credType catalog.Type) error {
	outcome, err := s.checkAuthorization(ctx, issuer, credType)
	if s.metrics != nil {
		s.metrics.IncrementAuthorizationCheck(outcome)
	}
	return err
}

func (s *Service) checkAuthorization(ctx context.Context, issuer domain.IssuerID, credType catalog.Type) (string, error) {
	record, err := s.store.FindByAddress(ctx, issuer)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "unregistered", dErrors.New(dErrors.CodeUnauthorizedIssuer, "issuer is not registered")
		}
		return "error", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
	}
	if !record.Active {
		return "inactive", dErrors.New(dErrors.CodeUnauthorizedIssuer, "issuer is inactive")
	}
	if !record.Authorizes(credType) {
		return "type_denied", dErrors.New(dErrors.CodeUnauthorizedIssuer, "issuer is not authorized for "+string(credType))
	}
	return "authorized", nil
}

func (s *Service) mutate(ctx context.Context, address domain.IssuerID, fn func(*models.Record, time.Time) error) (*models.Record, error) {
	var record *models.Record
	err := s.locks.Do(string(address), func() error {
		var err error
		record, err = s.Get(ctx, address)
		if err != nil {
			return err
		}
		if err := fn(record, now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "issuer not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update issuer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) validateTypes(types []catalog.Type) error {
	for _, t := range types {
		if !s.catalog.Contains(t) {
			return dErrors.New(dErrors.CodeValidation, "unknown credential type: "+string(t))
		}
	}
	return nil
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Second)
}
