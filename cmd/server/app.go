package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	credmetrics "trustscore/internal/credential/metrics"
	credservice "trustscore/internal/credential/service"
	"trustscore/internal/credential/signature"
	credstore "trustscore/internal/credential/store"
	issuancemetrics "trustscore/internal/issuance/metrics"
	issuanceservice "trustscore/internal/issuance/service"
	issuancestore "trustscore/internal/issuance/store"
	"trustscore/internal/issuance/workers/cleanup"
	issuermetrics "trustscore/internal/issuer/metrics"
	issuerservice "trustscore/internal/issuer/service"
	issuerstore "trustscore/internal/issuer/store"
	jwttoken "trustscore/internal/jwt_token"
	"trustscore/internal/ledgersync"
	"trustscore/internal/platform/config"
	"trustscore/internal/platform/database"
	"trustscore/internal/platform/health"
	"trustscore/internal/platform/kafka/consumer"
	"trustscore/internal/platform/kafka/producer"
	"trustscore/internal/platform/metrics"
	platformredis "trustscore/internal/platform/redis"
	"trustscore/internal/scoring"
	"trustscore/pkg/platform/audit"
	auditmetrics "trustscore/pkg/platform/audit/metrics"
	"trustscore/pkg/platform/audit/publisher"
	kafkaaudit "trustscore/pkg/platform/audit/store/kafka"
	"trustscore/pkg/platform/audit/store/memory"
	auditpostgres "trustscore/pkg/platform/audit/store/postgres"
	"trustscore/pkg/platform/circuit"
	"trustscore/pkg/platform/tracer"
)

const (
	auditBuffer        = 1024
	keyCacheSize       = 1024
	poolStatsInterval  = 15 * time.Second
	ledgerRetryBackoff = time.Second
)

type worker struct {
	name string
	run  func(ctx context.Context) error
}

// app holds every wired component. Postgres, Redis, Kafka and the remote
// signer are optional; each missing backend falls back to an in-process
// implementation.
type app struct {
	cfg      config.Server
	log      *slog.Logger
	registry *prometheus.Registry
	health   *health.Handler
	tokens   *jwttoken.JWTService

	credentials *credservice.Service
	issuers     *issuerservice.Service
	issuance    *issuanceservice.Service
	scoring     *scoring.Service
	signer      issuanceservice.Signer

	workers []worker
	closers []func()
}

func newApp(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *app, err error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: metrics.NewRegistry(health.Version, cfg.Environment),
		health:   health.New(cfg.Environment),
		tokens:   jwttoken.NewJWTService(cfg.ServiceTokenKey, cfg.TokenIssuer, cfg.TokenTTL),
	}
	a.tokens.SetEnv(cfg.Environment)
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		a.closers = append(a.closers, func() { _ = pool.Close() })
		if err := database.Migrate(ctx, pool.DB()); err != nil {
			return nil, err
		}
		a.health.RegisterCheck("postgres", pool.Health)
		if err := pool.RegisterMetrics(a.registry); err != nil {
			return nil, err
		}
	}

	rc, err := platformredis.New(ctx, cfg.Redis, a.registry)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, func() { _ = rc.Close() })
		a.health.RegisterCheck("redis", rc.Health)
		a.workers = append(a.workers, worker{name: "redis_pool_stats", run: func(ctx context.Context) error {
			return every(ctx, poolStatsInterval, rc.RecordPoolStats)
		}})
	}

	var kafkaProducer *producer.Producer
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err = producer.New(producer.Config{Brokers: cfg.Kafka.Brokers, Acks: "all"}, log)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		a.closers = append(a.closers, func() { _ = kafkaProducer.Close() })
		a.health.RegisterCheck("kafka", kafkaProducer.Health)
	}

	auditor, closeAudit := a.newAuditor(pool, kafkaProducer)
	a.closers = append(a.closers, closeAudit)

	tr := tracer.NewOTel()

	var issuerStore issuerstore.Store = issuerstore.NewInMemory()
	var credentialStore credstore.Store = credstore.NewInMemory()
	if pool != nil {
		issuerStore = issuerstore.NewPostgres(pool.DB())
		credentialStore = credstore.NewPostgres(pool.DB())
	}

	a.issuers = issuerservice.New(issuerStore,
		issuerservice.WithLogger(log),
		issuerservice.WithAuditor(auditor),
		issuerservice.WithMetrics(issuermetrics.New(a.registry)),
	)

	credOpts := []credservice.Option{
		credservice.WithLogger(log),
		credservice.WithAuditor(auditor),
		credservice.WithMetrics(credmetrics.New(a.registry)),
	}
	if rc != nil {
		credOpts = append(credOpts, credservice.WithDistributedLock(platformredis.NewLocker(rc.Client, platformredis.WithWait(cfg.Redis.LockTTL)), cfg.Redis.LockTTL))
	}
	a.credentials = credservice.New(credentialStore, signature.NewKeyResolver(keyCacheSize), a.issuers, credOpts...)

	var pending issuancestore.Store
	if rc != nil {
		pending = issuancestore.NewRedis(rc.Client)
	} else {
		mem := issuancestore.NewInMemory()
		pending = mem
		sweeper, err := cleanup.New(mem, cleanup.WithCleanupLogger(log))
		if err != nil {
			return nil, err
		}
		a.workers = append(a.workers, worker{name: "draft_cleanup", run: sweeper.Start})
	}
	issuanceMetrics := issuancemetrics.New(a.registry)
	a.issuance = issuanceservice.New(a.credentials, a.issuers, pending,
		issuanceservice.WithPendingTTL(cfg.PendingTTL),
		issuanceservice.WithTracer(tr),
		issuanceservice.WithMetrics(issuanceMetrics),
		issuanceservice.WithAuditor(auditor),
		issuanceservice.WithLogger(log),
	)

	a.scoring = scoring.NewService(credentialStore,
		scoring.WithTracer(tr),
		scoring.WithMetrics(scoring.NewMetrics(a.registry)),
		scoring.WithLogger(log),
	)

	if cfg.Signer.URL != "" {
		a.signer = signature.NewRemoteSigner(cfg.Signer.URL,
			signature.WithTimeout(cfg.Signer.Timeout),
			signature.WithBreaker(circuit.New("remote_signer")),
			signature.WithLogger(log),
		)
	}

	if cfg.Kafka.Brokers != "" {
		if err := a.startLedgerSync(auditor); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// newAuditor persists audit events to Postgres when configured, otherwise
// to memory, and mirrors them to Kafka when a producer exists.
func (a *app) newAuditor(pool *database.Pool, p *producer.Producer) (*audit.Logger, func()) {
	var primary audit.Store = memory.NewInMemoryStore()
	if pool != nil {
		primary = auditpostgres.New(pool.DB())
	}
	sink := primary
	if p != nil {
		sink = audit.Tee(primary, kafkaaudit.New(p, a.cfg.Kafka.AuditTopic))
	}
	pub := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithPublisherLogger(a.log),
		publisher.WithMetrics(auditmetrics.New(a.registry)),
	)
	return audit.NewLogger(a.log, pub), pub.Close
}

func (a *app) startLedgerSync(auditor *audit.Logger) error {
	h := ledgersync.NewHandler(a.credentials,
		ledgersync.WithAuditor(auditor),
		ledgersync.WithMetrics(ledgersync.NewMetrics(a.registry)),
		ledgersync.WithLogger(a.log),
	)
	c, err := consumer.New(consumer.Config{
		Brokers:         a.cfg.Kafka.Brokers,
		GroupID:         a.cfg.Kafka.GroupID,
		Topics:          []string{a.cfg.Kafka.LedgerTopic},
		AutoOffsetReset: "earliest",
		RetryBackoff:    ledgerRetryBackoff,
	}, h, a.log)
	if err != nil {
		return fmt.Errorf("ledger consumer: %w", err)
	}
	a.closers = append(a.closers, c.Close)
	a.health.RegisterCheck("ledger_consumer", c.Health)
	a.workers = append(a.workers, worker{name: "ledger_sync", run: c.Run})
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
