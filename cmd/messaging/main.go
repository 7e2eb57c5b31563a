package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/api"
	"github.com/LeventeLantos/direct-messaging/internal/auth"
	"github.com/LeventeLantos/direct-messaging/internal/cache"
	"github.com/LeventeLantos/direct-messaging/internal/config"
	"github.com/LeventeLantos/direct-messaging/internal/health"
	"github.com/LeventeLantos/direct-messaging/internal/policy"
	"github.com/LeventeLantos/direct-messaging/internal/repo"
	"github.com/LeventeLantos/direct-messaging/internal/scheduler"
	"github.com/LeventeLantos/direct-messaging/internal/service"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("messaging app exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	checker := health.NewChecker(2 * time.Second).Add("postgres", db.PingContext)

	var store repo.MessageStore = repo.NewPostgresMessageRepo(db)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		store = cache.NewCachedStore(store, cache.NewRedisCache(rdb, cfg.Redis.TTL))
		checker.Add("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	svc, err := service.New(store, policy.New(), cfg.Messages.ContentMax)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	probe, err := scheduler.New("health", cfg.Health.Interval, checker.Run,
		scheduler.WithRunTimeout(5*time.Second))
	if err != nil {
		return err
	}
	if err := probe.Start(ctx); err != nil {
		return err
	}
	defer probe.Stop()

	handler := api.Router(api.NewHandler(svc, checker), tokens)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           requestIDMiddleware(loggingMiddleware(handler)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("messaging app starting",
			"addr", cfg.Server.Address,
			"redis", cfg.Redis.Enabled,
			"content_max", cfg.Messages.ContentMax,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("messaging app shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
