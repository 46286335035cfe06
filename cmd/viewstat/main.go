package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klarsyn/viewstat/internal/config"
	"github.com/klarsyn/viewstat/internal/logging"
	"github.com/klarsyn/viewstat/internal/metrics"
	"github.com/klarsyn/viewstat/internal/rollup"
	"github.com/klarsyn/viewstat/internal/server"
	"github.com/klarsyn/viewstat/internal/sign"
	"github.com/klarsyn/viewstat/internal/store"
	"github.com/klarsyn/viewstat/internal/track"
	"github.com/klarsyn/viewstat/internal/version"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	// Tracking runs soft-disabled when the store is absent or unreachable;
	// the service still serves success-shaped responses.
	var kv store.Store
	if cfg.TrackingConfigured() {
		redis, err := store.NewRedis(store.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			slog.Warn("tracking disabled", "error", err)
		} else {
			defer redis.Close()
			kv = redis
		}
	} else {
		slog.Info("no store configured, tracking disabled")
	}

	m := metrics.New()
	if err := m.Register(); err != nil {
		slog.Error("register metrics", "error", err)
		os.Exit(1)
	}

	tracker := track.New(kv, track.Options{
		VisitorSetCap: cfg.VisitorSetCap,
		Retention:     cfg.Retention(),
	})
	reader := rollup.New(kv)
	verifier := sign.NewVerifier(cfg.SigningSecret, cfg.SigningMaxSkew)
	if !verifier.Enabled() {
		slog.Warn("SIGNING_SECRET not set, write requests are unsigned")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(tracker, reader, verifier, cfg, m),
	}

	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr, "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	slog.Info("shutdown complete")
}
