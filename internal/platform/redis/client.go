package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"trustscore/internal/platform/config"
)

type poolMetrics struct {
	hits       prometheus.Counter
	misses     prometheus.Counter
	timeouts   prometheus.Counter
	staleConns prometheus.Counter
	totalConns prometheus.Gauge
	idleConns  prometheus.Gauge
}

func newPoolMetrics(reg prometheus.Registerer) *poolMetrics {
	f := promauto.With(reg)
	return &poolMetrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}),
		timeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}),
		staleConns: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_redis_pool_stale_conns_total",
			Help: "Number of stale connections removed from the pool",
		}),
		totalConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustscore_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}),
		idleConns: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustscore_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}),
	}
}

// Client wraps the go-redis client with health checking and pool metrics.
type Client struct {
	*redis.Client

	metrics   *poolMetrics
	mu        sync.Mutex
	lastStats *redis.PoolStats
}

// New creates a Redis client from cfg and pings it.
// Returns nil if the URL is empty (Redis not configured).
func New(ctx context.Context, cfg config.RedisConfig, reg prometheus.Registerer) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return Wrap(client, reg), nil
}

// Wrap adopts an existing go-redis client, used by tests backed by miniredis.
func Wrap(client *redis.Client, reg prometheus.Registerer) *Client {
	c := &Client{Client: client}
	if reg != nil {
		c.metrics = newPoolMetrics(reg)
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// RecordPoolStats updates pool metrics with the delta since the last call.
func (c *Client) RecordPoolStats() {
	if c.metrics == nil {
		return
	}
	stats := c.PoolStats()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.totalConns.Set(float64(stats.TotalConns))
	c.metrics.idleConns.Set(float64(stats.IdleConns))

	var prev redis.PoolStats
	if c.lastStats != nil {
		prev = *c.lastStats
	}
	addDelta(c.metrics.hits, stats.Hits, prev.Hits)
	addDelta(c.metrics.misses, stats.Misses, prev.Misses)
	addDelta(c.metrics.timeouts, stats.Timeouts, prev.Timeouts)
	addDelta(c.metrics.staleConns, stats.StaleConns, prev.StaleConns)

	c.lastStats = stats
}

func addDelta(counter prometheus.Counter, now, prev uint32) {
	if now > prev {
		counter.Add(float64(now - prev))
	}
}
