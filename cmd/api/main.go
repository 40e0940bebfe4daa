package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/connectcom-support/cmd/mainconfig"
	"github.com/wolfman30/connectcom-support/internal/api/router"
	"github.com/wolfman30/connectcom-support/internal/app/bootstrap"
	"github.com/wolfman30/connectcom-support/internal/auth"
	appconfig "github.com/wolfman30/connectcom-support/internal/config"
	httpmiddleware "github.com/wolfman30/connectcom-support/internal/http/middleware"
	"github.com/wolfman30/connectcom-support/internal/observability/metrics"
	"github.com/wolfman30/connectcom-support/internal/session"
	"github.com/wolfman30/connectcom-support/internal/webchat"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

const (
	sessionSweepInterval = time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting connectcom support chat API",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.ChatBackend,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// awsLoader loads the AWS config at most once, and only if a component
// asks for it.
func awsLoader(cfg *appconfig.Config) bootstrap.AWSLoader {
	var (
		once   sync.Once
		awsCfg aws.Config
		err    error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() { awsCfg, err = mainconfig.LoadAWSConfig(ctx, cfg) })
		return awsCfg, err
	}
}

// setupMetrics registers the chat metrics on a dedicated registry.
func setupMetrics() (http.Handler, *metrics.ChatMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewChatMetrics(reg)
}

// buildHandler wires every dependency and returns the HTTP handler plus the
// session registry whose sweeper the caller runs.
func buildHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, *session.Registry, func(), error) {
	loadAWS := awsLoader(cfg)
	metricsHandler, chatMetrics := setupMetrics()

	profile, err := bootstrap.BuildProfile(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	backend, err := bootstrap.BuildBackend(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	notifier, err := bootstrap.BuildHandoffNotifier(ctx, cfg, loadAWS, logger)
	if err != nil {
		_ = backend.Close()
		return nil, nil, nil, err
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	revoked := bootstrap.BuildRevocationStore(redisClient, logger)
	checks := map[string]router.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	factory, err := bootstrap.ControllerFactory(bootstrap.ChatDeps{
		Backend:      backend.Client,
		BackendName:  backend.Name,
		Credentials:  auth.NewContextCredentials(revoked, logger),
		Profile:      profile,
		Retry:        bootstrap.BuildRetryPolicy(cfg),
		LockAfterEnd: cfg.ChatLockAfterEnd,
		Notifier:     notifier,
		Metrics:      chatMetrics,
		Logger:       logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, nil, nil, err
	}

	registry := session.NewRegistry(session.Config{
		Factory: factory,
		IdleTTL: cfg.SessionIdleTTL,
		Logger:  logger,
		Metrics: chatMetrics,
	})
	verifier := auth.NewVerifier(cfg.AuthJWTSecret)
	if verifier == nil {
		logger.Warn("AUTH_JWT_SECRET not set; bearer tokens are not verified")
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		Chat:               webchat.NewHandler(registry, revoked, verifier, logger),
		Verifier:           verifier,
		RateLimiter:        httpmiddleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Checks:             checks,
	})

	cleanup := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("closing chat backend", "error", err)
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	return handler, registry, cleanup, nil
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	handler, registry, cleanup, err := buildHandler(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// An exchange may spend several backend attempts plus backoff.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		registry.Run(gctx, sessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
