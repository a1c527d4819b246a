package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trustscore/internal/issuance/metrics"
)

// DraftStore exposes bulk eviction for pending stores without native TTLs.
type DraftStore interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// CleanupService periodically removes lapsed issuance drafts. Redis-backed
// deployments do not need it; keys expire on their own.
type CleanupService struct {
	drafts   DraftStore
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCleanupMetrics(m *metrics.Metrics) CleanupOption {
	return func(s *CleanupService) {
		s.metrics = m
	}
}

func New(drafts DraftStore, opts ...CleanupOption) (*CleanupService, error) {
	if drafts == nil {
		return nil, fmt.Errorf("draft store is required")
	}
	svc := &CleanupService{
		drafts:   drafts,
		interval: time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "issuance draft cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce evicts lapsed drafts and returns how many were removed.
func (s *CleanupService) RunOnce(ctx context.Context) (int, error) {
	n, err := s.drafts.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired drafts: %w", err)
	}
	if n > 0 && s.metrics != nil {
		s.metrics.AddExpired(n)
	}
	return n, nil
}
