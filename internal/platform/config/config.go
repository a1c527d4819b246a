package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// ServiceTokenKey signs and verifies admin, issuer and ledger tokens.
	ServiceTokenKey string
	TokenIssuer     string
	TokenTTL        time.Duration

	// PendingTTL bounds how long an issuance draft waits for its signature.
	PendingTTL time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Signer   SignerConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LockTTL bounds the cross-instance per-credential lock.
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers     string
	AuditTopic  string
	LedgerTopic string
	GroupID     string
}

// SignerConfig points at an optional remote signing service.
type SignerConfig struct {
	URL     string
	Timeout time.Duration
}

// DevServiceTokenKey signs tokens when SERVICE_TOKEN_KEY is unset in dev.
const DevServiceTokenKey = "dev-service-token-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays
// lean. Malformed durations and integers are errors rather than silently
// falling back to defaults.
func FromEnv() (Server, error) {
	e := &envReader{}
	cfg := Server{
		Addr:            e.str("TRUSTSCORE_ADDR", ":8080"),
		Environment:     e.str("TRUSTSCORE_ENV", "dev"),
		LogLevel:        e.str("LOG_LEVEL", "info"),
		ServiceTokenKey: e.str("SERVICE_TOKEN_KEY", ""),
		TokenIssuer:     e.str("SERVICE_TOKEN_ISSUER", "trustscore"),
		TokenTTL:        e.duration("SERVICE_TOKEN_TTL", 24*time.Hour),
		PendingTTL:      e.duration("PENDING_TTL", 15*time.Minute),
		Database: DatabaseConfig{
			URL:             e.str("DATABASE_URL", ""),
			MaxOpenConns:    e.int("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    e.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      e.duration("REDIS_LOCK_TTL", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     e.str("KAFKA_BROKERS", ""),
			AuditTopic:  e.str("KAFKA_AUDIT_TOPIC", "trustscore.audit"),
			LedgerTopic: e.str("KAFKA_LEDGER_TOPIC", "ledger.credentials"),
			GroupID:     e.str("KAFKA_GROUP_ID", "trustscore-ledger-sync"),
		},
		Signer: SignerConfig{
			URL:     e.str("SIGNER_URL", ""),
			Timeout: e.duration("SIGNER_TIMEOUT", 5*time.Second),
		},
	}
	if e.err != nil {
		return Server{}, e.err
	}

	if cfg.ServiceTokenKey == "" {
		if !cfg.IsDev() {
			return Server{}, fmt.Errorf("SERVICE_TOKEN_KEY is required outside dev")
		}
		cfg.ServiceTokenKey = DevServiceTokenKey
	}
	if cfg.PendingTTL <= 0 {
		return Server{}, fmt.Errorf("PENDING_TTL must be positive")
	}
	return cfg, nil
}

// IsDev reports whether in-memory fallbacks and the dev token key are allowed.
func (s Server) IsDev() bool {
	return s.Environment == "dev" || s.Environment == "test"
}

// envReader records the first parse error so FromEnv can report it once.
type envReader struct {
	err error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid duration %q: %w", key, v, err))
		return def
	}
	return d
}

func (e *envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(fmt.Errorf("%s: invalid integer %q: %w", key, v, err))
		return def
	}
	return n
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
