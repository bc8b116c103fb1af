package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mediagate"
	"mediagate/config"
	"mediagate/credentials"
	"mediagate/filesystem"
	mediagatehttp "mediagate/http"
	"mediagate/monitoring"
	"mediagate/ratelimit"
	"mediagate/s3store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	Long:  `Start the mediagate HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()

	gateway, err := mediagate.NewCacheGateway(mediagate.DefaultPolicies())
	if err != nil {
		return fmt.Errorf("create cache gateway: %w", err)
	}

	limits, err := buildLimits(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}

	var throttle *ratelimit.Throttle
	if cfg.RateLimit.Throttle.Enabled {
		throttle, err = ratelimit.NewThrottle(cfg.RateLimit.Throttle.RPS, cfg.RateLimit.Throttle.Burst)
		if err != nil {
			return fmt.Errorf("create throttle: %w", err)
		}
	}

	users, err := credentials.NewStore(cfg.Auth.Users)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	verifier := credentials.NewVerifier(users)

	sessions, err := credentials.NewSessionStore(cfg.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}

	monitor, err := monitoring.New(cfg.Monitoring)
	if err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}

	var metrics *monitoring.Metrics
	if monitor.Enabled() {
		if err := monitor.Start(); err != nil {
			return fmt.Errorf("start monitor: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := monitor.Stop(stopCtx); err != nil {
				slog.Error("monitor shutdown error", "err", err)
			}
		}()
		metrics = monitor.Metrics()
	}

	handlerConfig := mediagatehttp.HandlerConfig{
		CORS:              cfg.CORS,
		TrustForwardedFor: cfg.Server.TrustForwardedFor,
		ProtectFiles:      cfg.Server.ProtectFiles,
	}

	handler := mediagatehttp.NewHandler(&handlerConfig, mediagatehttp.Deps{
		Cache:    gateway,
		Storage:  storage,
		Limits:   limits,
		Throttle: throttle,
		Verifier: verifier,
		Sessions: sessions,
		Metrics:  metrics,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// openStorage selects the storage backend. The returned func releases any
// held resources.
func openStorage(ctx context.Context, cfg config.StorageConfig) (mediagate.Storage, func(), error) {
	if cfg.Type == "s3" {
		store, err := s3store.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 storage: %w", err)
		}
		slog.Info("using s3 storage", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
		return store, func() {}, nil
	}

	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	slog.Info("using filesystem storage", "path", cfg.Path)
	return filesystem.NewStore(root), func() { _ = root.Close() }, nil
}

// buildLimits picks the shared redis store when configured, falling back to
// the in-process limiter otherwise.
func buildLimits(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Store, error) {
	rules := cfg.Rules()

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		store, err := ratelimit.NewRedisStore(rdb, rules, ratelimit.WithKeyPrefix(cfg.Redis.Prefix))
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
		slog.Info("using redis rate limit store", "addr", cfg.Redis.Addr)
		return store, nil
	}

	limiter, err := ratelimit.NewLimiter(rules, ratelimit.WithSweepInterval(cfg.SweepInterval))
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}
	limiter.StartJanitor(ctx, cfg.SweepInterval)
	return limiter, nil
}
