/*
Package main is the entry point for the userdash API server.

It loads configuration, initializes logging and error reporting, picks the
account store (Postgres or in-memory) and the auth rate limiter (Redis or
in-process), wires the services into the HTTP router and shuts down
gracefully on SIGINT/SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"userdash/internal/app/auth"
	"userdash/internal/app/db"
	"userdash/internal/app/profile"
	"userdash/internal/app/qrcode"
	"userdash/internal/app/storage"
	"userdash/internal/app/user"
	"userdash/internal/configs"
	"userdash/internal/handler"
	"userdash/internal/pkg/auth/jwt"
	"userdash/internal/pkg/limiter"
	"userdash/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("postgres", cfg.DatabaseDSN != "").
		Bool("redis", cfg.RedisAddr != "").
		Bool("storage", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logx.Error(err, "sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var users user.Store
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to database")
		}
		defer pool.Close()
		users = db.NewUserStore(pool)
	} else {
		logx.Warn("DATABASE_URL not set, accounts are kept in memory and lost on restart")
		users = user.NewMemoryStore()
	}

	authLimiter := newAuthLimiter(ctx, cfg)

	var archive qrcode.Archive
	if cfg.StorageEnabled() {
		storageService, err := storage.NewStorageService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
		archive = storageService
	}

	authService, err := auth.NewService(users, jwt.NewSigner(cfg.JWTSecret, cfg.TokenExpiry), auth.Options{
		BcryptCost:    cfg.BcryptCost,
		AvatarBaseURL: cfg.AvatarBaseURL,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize auth service")
	}

	deps := &handler.AppDeps{
		Config:   cfg,
		Users:    users,
		Auth:     authService,
		Profiles: profile.NewService(users),
		QRCodes: qrcode.NewService(users, qrcode.Options{
			Size:          cfg.QRSize,
			PublicBaseURL: cfg.PublicBaseURL,
			Archive:       archive,
			DownloadTTL:   cfg.QRDownloadTTL,
		}),
		AuthLimiter: authLimiter,
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("userdash server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}

// newAuthLimiter returns a Redis-backed limiter shared across instances when
// REDIS_ADDR is set and reachable, and a per-process token bucket otherwise.
func newAuthLimiter(ctx context.Context, cfg *configs.AppConfig) limiter.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		err := client.Ping(pingCtx).Err()
		if err == nil {
			logx.Info("auth rate limiter backed by redis", "addr", cfg.RedisAddr)
			return limiter.NewRedisLimiter(client, time.Minute, cfg.AuthRatePerMinute)
		}

		logx.Error(err, "redis unreachable, falling back to in-process rate limiter", "addr", cfg.RedisAddr)
		_ = client.Close()
	}

	perSecond := rate.Limit(float64(cfg.AuthRatePerMinute) / 60)
	return limiter.NewIPRateLimiter(ctx, perSecond, cfg.AuthRateBurst, 5*time.Minute)
}
