// Package redis implements domain.SessionRepository on Redis. The client is
// wrapped in hooks that record Prometheus metrics and trip a circuit breaker
// when Redis keeps failing.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/metrics"
)

// NewClient parses redisURL, installs the metrics and circuit breaker hooks
// and pings the server once. m may be nil, in which case no metrics are kept.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if m != nil {
		rdb.AddHook(NewMetricsHook(m))
	}
	rdb.AddHook(NewCircuitBreakerHook(m))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
