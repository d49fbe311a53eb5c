package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/domain/model"
	apperrors "github.com/relayworks/jobrelay/internal/errors"
	"github.com/relayworks/jobrelay/internal/observability/metrics"
	"github.com/relayworks/jobrelay/internal/observability/statsd"
)

// SubmissionServiceOptions groups dependencies for SubmissionService.
type SubmissionServiceOptions struct {
	Repo      core.JobRepository  // Required: job repository
	Publisher core.QueuePublisher // Required: queue publisher
	OpTimeout time.Duration       // Optional: per-operation timeout for store and queue calls
	Logger    *slog.Logger        // Optional: structured logger
	Metrics   statsd.Sink         // Optional: metrics sink (StatsD-compatible)
}

// SubmissionService accepts new work requests. Each submission is persisted
// before it is enqueued; the record is the source of truth and the queue
// message is only a notification. A publish failure therefore leaves a valid
// pending record behind, and the error carries the assigned identifier so
// callers can poll or retry without re-submitting.
type SubmissionService struct {
	repo      core.JobRepository
	publisher core.QueuePublisher
	opTimeout time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewSubmissionService constructs a new SubmissionService.
func NewSubmissionService(opts SubmissionServiceOptions) (*SubmissionService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("QueuePublisher is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "submission_service")
	}

	return &SubmissionService{
		repo:      opts.Repo,
		publisher: opts.Publisher,
		opTimeout: opts.OpTimeout,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewSubmissionService constructs a new SubmissionService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewSubmissionService(opts SubmissionServiceOptions) *SubmissionService {
	svc, err := NewSubmissionService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create SubmissionService: %v", err))
	}
	return svc
}

// Submit validates the request, persists a pending job under a fresh
// identifier, then publishes a work notification. The returned job always
// carries the assigned identifier, including on enqueue failure.
func (s *SubmissionService) Submit(
	ctx context.Context,
	req *model.SubmitJobRequest,
) (*model.Job, error) {
	start := time.Now()

	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job := &model.Job{
		ID:         uuid.NewString(),
		Status:     model.JobStatusPending,
		Vendor:     req.Vendor,
		VendorType: req.VendorType,
		Payload:    req.Payload,
	}

	if err := s.insert(ctx, job); err != nil {
		s.emit(metrics.JobMetric{
			Vendor:     job.Vendor,
			Transition: metrics.TransitionSubmit,
			Result:     metrics.ResultError,
			Duration:   time.Since(start),
			Err:        err,
		})
		return nil, err
	}

	if err := s.publish(ctx, job); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "job persisted but enqueue failed",
				"id", job.ID,
				"vendor", job.Vendor,
				"error", err,
			)
		}
		s.emit(metrics.JobMetric{
			Vendor:     job.Vendor,
			Transition: metrics.TransitionEnqueue,
			Result:     metrics.ResultError,
			Duration:   time.Since(start),
			Err:        err,
		})
		return job, apperrors.Enqueue(job.ID, err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job accepted",
			"id", job.ID,
			"vendor", job.Vendor,
			"vendor_type", job.VendorType,
		)
	}
	s.emit(metrics.JobMetric{
		Vendor:     job.Vendor,
		Transition: metrics.TransitionSubmit,
		Result:     metrics.ResultSuccess,
		Duration:   time.Since(start),
	})

	return job, nil
}

func (s *SubmissionService) insert(ctx context.Context, job *model.Job) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.repo.Insert(opCtx, job); err != nil {
		if errors.Is(err, data.ErrDuplicateJob) {
			return apperrors.Duplicate(fmt.Sprintf("job %s already exists", job.ID), err)
		}
		return apperrors.Persistence("persist job", err)
	}
	return nil
}

func (s *SubmissionService) publish(ctx context.Context, job *model.Job) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	return s.publisher.Publish(opCtx, model.NewQueueMessage(job))
}

func (s *SubmissionService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *SubmissionService) emit(m metrics.JobMetric) {
	metrics.EmitJobLifecycle(s.metrics, m)
}
