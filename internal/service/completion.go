package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/domain/model"
	apperrors "github.com/relayworks/jobrelay/internal/errors"
	"github.com/relayworks/jobrelay/internal/observability/metrics"
	"github.com/relayworks/jobrelay/internal/observability/statsd"
)

// CompletionServiceOptions groups dependencies for CompletionService.
type CompletionServiceOptions struct {
	Repo      core.JobRepository     // Required: job repository
	Cache     core.TerminalViewCache // Optional: terminal view cache
	OpTimeout time.Duration          // Optional: per-operation timeout for store calls
	Logger    *slog.Logger           // Optional: structured logger
	Metrics   statsd.Sink            // Optional: metrics sink (StatsD-compatible)
}

// CompletionService ingests vendor completion signals. The guarded store
// update is the only concurrency control: a completion applies exactly once,
// and any later delivery of the same signal is a no-op rather than an error.
type CompletionService struct {
	repo      core.JobRepository
	cache     core.TerminalViewCache
	opTimeout time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink
}

// completableStatuses are the states a completion signal may land on. A job
// already in a terminal state keeps its first result.
var completableStatuses = []model.JobStatus{
	model.JobStatusPending,
	model.JobStatusProcessing,
}

// NewCompletionService constructs a new CompletionService.
func NewCompletionService(opts CompletionServiceOptions) (*CompletionService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "completion_service")
	}

	return &CompletionService{
		repo:      opts.Repo,
		cache:     opts.Cache,
		opTimeout: opts.OpTimeout,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewCompletionService constructs a new CompletionService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewCompletionService(opts CompletionServiceOptions) *CompletionService {
	svc, err := NewCompletionService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create CompletionService: %v", err))
	}
	return svc
}

// Ingest applies a vendor completion signal. Returns applied=true when this
// call transitioned the job to completed, applied=false when the job was
// already terminal (idempotent redelivery). Unknown identifiers are an error.
func (s *CompletionService) Ingest(
	ctx context.Context,
	vendorID string,
	req *model.CompletionRequest,
) (bool, error) {
	start := time.Now()

	if req == nil {
		return false, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return false, apperrors.Validation(err.Error())
	}

	applied, err := s.complete(ctx, req)
	if err != nil {
		s.emit(vendorID, metrics.ResultError, time.Since(start), err)
		return false, err
	}

	if applied {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "job completed",
				"id", req.RequestID,
				"vendor_id", vendorID,
			)
		}
		s.cacheCompletedView(ctx, req)
		s.emit(vendorID, metrics.ResultSuccess, time.Since(start), nil)
		return true, nil
	}

	// The guard did not match. Distinguish an unknown job from a redelivered
	// completion for a job that is already terminal.
	job, err := s.lookup(ctx, req.RequestID)
	if err != nil {
		s.emit(vendorID, metrics.ResultError, time.Since(start), err)
		return false, err
	}

	if !job.Status.Terminal() {
		// The job left the allowed set between the guard and the lookup but is
		// not terminal. The store contract makes this unreachable.
		err := apperrors.Internal(fmt.Sprintf("job %s in unexpected status %s", job.ID, job.Status))
		s.emit(vendorID, metrics.ResultError, time.Since(start), err)
		return false, err
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "completion redelivered for terminal job, ignoring",
			"id", req.RequestID,
			"vendor_id", vendorID,
			"status", job.Status,
		)
	}
	s.emit(vendorID, metrics.ResultNoop, time.Since(start), nil)
	return false, nil
}

func (s *CompletionService) complete(ctx context.Context, req *model.CompletionRequest) (bool, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	applied, err := s.repo.CompleteIf(opCtx, core.CompleteIfParams{
		ID:      req.RequestID,
		Allowed: completableStatuses,
		Status:  model.JobStatusCompleted,
		Result:  req.Data,
	})
	if err != nil {
		return false, apperrors.Persistence("complete job", err)
	}
	return applied, nil
}

func (s *CompletionService) lookup(ctx context.Context, id string) (*model.Job, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	job, err := s.repo.GetByID(opCtx, id)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, apperrors.Persistence("lookup job after completion", err)
	}
	return job, nil
}

// cacheCompletedView writes the now-immutable terminal view. Best effort; a
// cache fault never fails the completion.
func (s *CompletionService) cacheCompletedView(ctx context.Context, req *model.CompletionRequest) {
	if s.cache == nil {
		return
	}

	view := model.JobView{
		Status: model.ViewStatusComplete,
		Result: req.Data,
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, req.RequestID, raw); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "view cache write failed", "id", req.RequestID, "error", err)
	}
}

func (s *CompletionService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *CompletionService) emit(vendorID, result string, elapsed time.Duration, err error) {
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Vendor:     vendorID,
		Transition: metrics.TransitionComplete,
		Result:     result,
		Duration:   elapsed,
		Err:        err,
	})
}
