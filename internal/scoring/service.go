package scoring

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"trustscore/contracts/score"
	"trustscore/internal/collateral"
	"trustscore/internal/credential/catalog"
	"trustscore/internal/credential/models"
	"trustscore/pkg/domain"
	dErrors "trustscore/pkg/domain-errors"
	"trustscore/pkg/platform/tracer"
	"trustscore/pkg/requestcontext"
)

// CredentialReader is the read side of the credential store.
type CredentialReader interface {
	ListBySubject(ctx context.Context, subject domain.SubjectID) ([]*models.Credential, error)
}

type Option func(*Service)

// Service answers score and collateral queries. It never writes.
type Service struct {
	credentials CredentialReader
	aggregator  *Aggregator
	tracer      tracer.Tracer
	metrics     *Metrics
	logger      *slog.Logger
}

func NewService(credentials CredentialReader, opts ...Option) *Service {
	svc := &Service{
		credentials: credentials,
		aggregator:  NewAggregator(catalog.Default()),
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		s.aggregator = NewAggregator(c)
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Compute reads subject's credentials once and aggregates them at the request time.
func (s *Service) Compute(ctx context.Context, subject domain.SubjectID) (res Result, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanScoreCompute,
		tracer.String(tracer.AttrSubject, tracer.HashSubject(string(subject))),
	)
	defer func() { span.End(err) }()

	creds, err := s.credentials.ListBySubject(ctx, subject)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credentials")
	}

	res = s.aggregator.Aggregate(creds, requestcontext.Now(ctx))
	span.SetAttributes(
		tracer.Int64(tracer.AttrScore, int64(res.Score)),
		tracer.Int64(tracer.AttrCredentialCount, int64(res.CredentialCount)),
		tracer.Int64(tracer.AttrSkipped, int64(res.Skipped)),
	)
	if res.Skipped > 0 {
		s.logger.WarnContext(ctx, "skipped malformed credential records",
			"subject_hash", tracer.HashSubject(string(subject)),
			"skipped", res.Skipped,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveScore(res.Score, time.Since(start).Seconds(), res.Skipped)
	}
	return res, nil
}

// Details is getScoreDetails for the lending facility.
func (s *Service) Details(ctx context.Context, subject domain.SubjectID) (*score.Details, error) {
	res, err := s.Compute(ctx, subject)
	if err != nil {
		return nil, err
	}
	details := &score.Details{
		Subject:          string(subject),
		Score:            res.Score,
		CredentialCount:  res.CredentialCount,
		CollateralFactor: s.CollateralFactor(res.Score),
		ComputedAt:       requestcontext.Now(ctx).Unix(),
	}
	if !res.LastUpdated.IsZero() {
		details.LastUpdated = res.LastUpdated.Unix()
	}
	return details, nil
}

// CollateralFactor is collateral.Factor with metrics.
func (s *Service) CollateralFactor(scoreValue int) int {
	f := collateral.Factor(scoreValue)
	if s.metrics != nil {
		s.metrics.CollateralLookups.WithLabelValues(strconv.Itoa(f)).Inc()
	}
	return f
}
