package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"marketplace_backend/internal/app/di"
	"marketplace_backend/internal/app/router"
	"marketplace_backend/internal/platform/config"
	platformdb "marketplace_backend/internal/platform/db"
	platformhandler "marketplace_backend/internal/platform/http/handler"
	jwtmw "marketplace_backend/internal/platform/jwt"
	"marketplace_backend/internal/platform/logger"
	"marketplace_backend/internal/platform/metrics"
	"marketplace_backend/internal/platform/password"
	platformredis "marketplace_backend/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 設定（JWT_SECRET未設定の場合は起動しない）
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logger.New(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// db
	db, err := platformdb.ConnectWithRetry(platformdb.BuildDSN(cfg.DB), cfg.DBConnectTimeout, platformdb.OpenPostgres)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	if cfg.RunMigrations {
		if err := platformdb.Migrate(ctx, sqlDB, "postgres"); err != nil {
			return err
		}
	}
	ready := []platformhandler.Check{{Name: "database", Ping: sqlDB.PingContext}}

	// Redis
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := platformredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
			ready = append(ready, platformhandler.Check{
				Name: "redis",
				Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
		}
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	issuer, err := jwtmw.NewIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}

	users := di.NewUserRepository(db, rdb, cfg.UserCacheTTL, m)
	handlers := di.NewHandlers(users, issuer, password.NewBcryptHasher(bcrypt.DefaultCost), m)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: router.NewRouter(router.Deps{
			Handlers: handlers,
			Verifier: issuer,
			Metrics:  m,
			Ready:    ready,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server exited")
	return nil
}
