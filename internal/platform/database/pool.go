// Package database opens the Postgres pool and applies the schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"trustscore/internal/platform/config"
)

const pingTimeout = 5 * time.Second

var errNotConfigured = errors.New("database not configured")

// Pool owns the process-wide *sql.DB.
type Pool struct {
	db *sql.DB
}

// New opens and pings the pool. An empty URL means "no database" and
// returns a nil Pool without error; callers fall back to memory stores.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Pool{db: db}, nil
}

func (p *Pool) DB() *sql.DB { return p.db }

// RegisterMetrics exports sql.DBStats as go_sql_* series labelled
// db_name="trustscore".
func (p *Pool) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(collectors.NewDBStatsCollector(p.db, "trustscore"))
}

// Health pings the database; it is a health.CheckFunc.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errNotConfigured
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
