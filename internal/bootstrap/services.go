package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relayworks/jobrelay/config"
	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/observability/statsd"
	"github.com/relayworks/jobrelay/internal/service"
)

const shutdownWaitTimeout = 30 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Submission *service.SubmissionService
	Status     *service.StatusService
	Completion *service.CompletionService
	Reconciler *service.ReconcilerService

	// Metrics is the shared StatsD sink; nil when metrics are disabled.
	Metrics *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Publisher   core.QueuePublisher
	Logger      *slog.Logger
}

// buildMetrics configures the StatsD sink, or returns nil when disabled.
func buildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("statsd client unavailable, metrics disabled", "error", err)
		}
		return nil
	}
	return client
}

// NewServices wires the repositories and services from shared connections.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	if deps.Publisher == nil {
		return ServiceContainer{}, errors.New("queue publisher is required")
	}

	metricsClient := buildMetrics(deps.Config.Observability.Metrics, deps.Logger)

	repo := data.NewJobRepo(deps.DB, data.RepoConfig{Logger: deps.Logger})

	var cache core.TerminalViewCache
	if deps.RedisClient != nil {
		cache = data.NewRedisViewCache(deps.RedisClient, deps.Config.Redis.ViewTTL)
	}

	submission, err := service.NewSubmissionService(service.SubmissionServiceOptions{
		Repo:      repo,
		Publisher: deps.Publisher,
		OpTimeout: deps.Config.Orchestrator.OpTimeout,
		Logger:    deps.Logger,
		Metrics:   sinkOrNil(metricsClient),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create submission service: %w", err)
	}

	status, err := service.NewStatusService(service.StatusServiceOptions{
		Repo:   repo,
		Cache:  cache,
		Logger: deps.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create status service: %w", err)
	}

	completion, err := service.NewCompletionService(service.CompletionServiceOptions{
		Repo:      repo,
		Cache:     cache,
		OpTimeout: deps.Config.Orchestrator.OpTimeout,
		Logger:    deps.Logger,
		Metrics:   sinkOrNil(metricsClient),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create completion service: %w", err)
	}

	reconciler, err := service.NewReconcilerService(service.ReconcilerServiceOptions{
		Repo:      repo,
		Publisher: deps.Publisher,
		Config:    deps.Config.Reconciler,
		Logger:    deps.Logger,
		Metrics:   sinkOrNil(metricsClient),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create reconciler service: %w", err)
	}

	return ServiceContainer{
		Submission: submission,
		Status:     status,
		Completion: completion,
		Reconciler: reconciler,
		Metrics:    metricsClient,
	}, nil
}

// sinkOrNil avoids handing services a typed-nil statsd.Sink.
func sinkOrNil(client *statsd.Client) statsd.Sink {
	if client == nil {
		return nil
	}
	return client
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(enabledServices)+1)

	var httpServer *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Addr:     cfg.Config.HTTP.Addr,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	var backgrounds []backgroundServiceHandle
	if enabledServices[config.ServiceModeReconciler] {
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := cfg.Services.Reconciler.Run(serviceCtx); err != nil {
				select {
				case errCh <- fmt.Errorf("reconciler failed: %w", err):
				case <-serviceCtx.Done():
				}
			}
		}()
		logger.Info("background service started", "service", "reconciler")
		backgrounds = append(backgrounds, backgroundServiceHandle{name: "reconciler", done: done})
	}

	return waitForShutdown(shutdownDeps{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

// shutdownDeps contains dependencies for graceful shutdown.
type shutdownDeps struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for a shutdown signal or service error.
func waitForShutdown(deps shutdownDeps) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		deps.logger.Info("shutting down services...")
		deps.cancel()
		return gracefulStop(deps)
	case err := <-deps.errCh:
		deps.logger.Error("service error", "error", err)
		deps.cancel()
		if stopErr := gracefulStop(deps); stopErr != nil {
			deps.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(deps shutdownDeps) error {
	if deps.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(shutdownCtx, deps.httpServer, deps.logger); err != nil {
			return err
		}
	}

	for _, svc := range deps.backgrounds {
		waitForService(svc.done, svc.name, deps.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
