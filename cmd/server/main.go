package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/httpserver"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/memory"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/metrics"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/adapter/redis"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/app"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/platform/config"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/platform/logging"
	"github.com/Jacob-Clark-809/todolist-webapp/internal/platform/retry"
)

const (
	shutdownTimeout        = 10 * time.Second
	memoryEvictionInterval = time.Minute
)

var redisConnectPolicy = retry.Policy{
	MaxAttempts:    5,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Redis not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func runGracefulShutdown(srv *httpserver.Server, cleanup ...func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, fn := range cleanup {
			fn()
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := retry.Do(ctx, redisConnectPolicy, retry.UnlessCanceled, func() (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, m)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// sessionSetup is the chosen backend plus whatever must run alongside it.
type sessionSetup struct {
	backend      httpserver.SessionBackend
	healthChecks []httpserver.HealthCheck
	cleanup      []func()
}

func setupSessions(cfg *config.Config, reg prometheus.Registerer) sessionSetup {
	store := httpserver.NewCookieStore(cfg)
	sessionMetrics := metrics.NewSessionMetrics(reg)

	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client := setupRedis(context.Background(), cfg, metrics.NewRedisMetrics(reg))
		repo := redis.NewSessionRepo(client, cfg.SessionMaxAge)
		return sessionSetup{
			backend:      httpserver.NewRepositoryBackend(config.SessionBackendRedis, store, repo, sessionMetrics),
			healthChecks: []httpserver.HealthCheck{{Name: "redis", Check: repo.Ping}},
			cleanup:      []func(){func() { _ = client.Close() }},
		}

	case config.SessionBackendMemory:
		repo := memory.NewSessionRepository(cfg.SessionMaxAge, clockwork.NewRealClock())
		stopEviction := repo.StartEvictionTimer(memoryEvictionInterval)
		return sessionSetup{
			backend: httpserver.NewRepositoryBackend(config.SessionBackendMemory, store, repo, sessionMetrics),
			cleanup: []func(){stopEviction},
		}

	default:
		return sessionSetup{backend: httpserver.NewCookieBackend(store, sessionMetrics)}
	}
}

func main() {
	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "session_backend", cfg.SessionBackend)

	reg := metrics.NewRegistry()
	session := setupSessions(cfg, reg)
	lists := app.NewService(metrics.NewListMetrics(reg))

	srv, err := httpserver.NewServer(cfg, lists, session.backend, reg, session.healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, session.cleanup...)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
