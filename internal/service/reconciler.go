package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relayworks/jobrelay/config"
	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/domain/model"
	obserrors "github.com/relayworks/jobrelay/internal/observability/errors"
	"github.com/relayworks/jobrelay/internal/observability/metrics"
	"github.com/relayworks/jobrelay/internal/observability/statsd"
)

// ReconcilerServiceOptions groups dependencies for ReconcilerService.
type ReconcilerServiceOptions struct {
	Repo      core.JobRepository      // Required: job repository
	Publisher core.QueuePublisher     // Required: queue publisher
	Config    config.ReconcilerConfig // Required: reconciler configuration
	Logger    *slog.Logger            // Optional: structured logger
	Metrics   statsd.Sink             // Optional: metrics sink (StatsD-compatible)
}

// ReconcilerService closes the persist-then-enqueue gap. A job whose store
// write succeeded but whose publish failed sits in pending with no queue
// message; the reconciler periodically republishes such stale pending jobs.
// Republishing does not change job status, so at-least-once delivery is the
// operating assumption for queue consumers.
type ReconcilerService struct {
	repo      core.JobRepository
	publisher core.QueuePublisher
	config    config.ReconcilerConfig
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewReconcilerService constructs a new ReconcilerService.
func NewReconcilerService(opts ReconcilerServiceOptions) (*ReconcilerService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("QueuePublisher is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reconciler_service")
		logger.Debug("ReconcilerService initialized",
			"interval", opts.Config.Interval,
			"pending_max_age", opts.Config.PendingMaxAge,
			"batch_size", opts.Config.BatchSize,
			"concurrency", opts.Config.Concurrency,
		)
	}

	return &ReconcilerService{
		repo:      opts.Repo,
		publisher: opts.Publisher,
		config:    opts.Config,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewReconcilerService constructs a new ReconcilerService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewReconcilerService(opts ReconcilerServiceOptions) *ReconcilerService {
	svc, err := NewReconcilerService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create ReconcilerService: %v", err))
	}
	return svc
}

// Run starts the reconciler loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReconcilerService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reconciler service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run a sweep immediately after jitter
	if err := s.runSweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reconciler service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.runSweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
				// Continue running despite errors
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReconcilerService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

// runSweep republishes one batch of stale pending jobs. A single batch per
// tick: republishing leaves status untouched, so draining in a loop would
// fetch the same rows again. Anything beyond the batch waits for the next tick.
func (s *ReconcilerService) runSweep(ctx context.Context) error {
	start := time.Now()

	jobs, err := s.repo.ListStalePending(ctx, core.StalePendingParams{
		MaxAge:    s.config.PendingMaxAge,
		BatchSize: s.config.BatchSize,
	})
	if err != nil {
		s.emitSweepMetrics(0, 0, time.Since(start), err)
		return fmt.Errorf("list stale pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		s.emitSweepMetrics(0, 0, time.Since(start), nil)
		return nil
	}

	var republished int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	results := make([]error, len(jobs))
	for i, job := range jobs {
		g.Go(func() error {
			if err := s.publisher.Publish(gctx, model.NewQueueMessage(job)); err != nil {
				results[i] = err
				return nil // keep republishing the rest of the batch
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, job := range jobs {
		if results[i] != nil {
			errs = append(errs, fmt.Errorf("republish job %s: %w", job.ID, results[i]))
			continue
		}
		republished++
	}

	if republished > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "republished stale pending jobs",
			"count", republished,
			"batch", len(jobs),
			"max_age", s.config.PendingMaxAge,
		)
	}

	joined := errors.Join(errs...)
	s.emitSweepMetrics(republished, len(jobs), time.Since(start), joined)

	if joined != nil {
		if isContextCancellation(joined) && ctx.Err() != nil {
			return context.Canceled
		}
		return fmt.Errorf("sweep incomplete: %w", joined)
	}
	return nil
}

func (s *ReconcilerService) emitSweepMetrics(republished int64, batch int, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case batch == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result": result,
	}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reconciler.sweep", 1, tags)

	if elapsed > 0 {
		s.metrics.Timing("reconciler.sweep_duration", elapsed, metrics.CloneTags(tags))
	}
	if republished > 0 {
		s.metrics.Count("reconciler.jobs_republished", republished, metrics.CloneTags(tags))
	}
	if err == nil {
		s.metrics.Gauge("reconciler.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReconcilerService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
