package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/domain/model"
	apperrors "github.com/relayworks/jobrelay/internal/errors"
)

// StatusServiceOptions groups dependencies for StatusService.
type StatusServiceOptions struct {
	Repo   core.JobRepository     // Required: job repository
	Cache  core.TerminalViewCache // Optional: terminal view cache
	Logger *slog.Logger           // Optional: structured logger
}

// StatusService resolves the externally visible view of a job. The external
// vocabulary is two-valued: a completed job reads "complete" with its result,
// everything else reads "processing". Failed jobs deliberately present as
// "processing" so callers cannot distinguish a failure from slow work.
type StatusService struct {
	repo   core.JobRepository
	cache  core.TerminalViewCache
	logger *slog.Logger
}

// NewStatusService constructs a new StatusService.
func NewStatusService(opts StatusServiceOptions) (*StatusService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "status_service")
	}

	return &StatusService{
		repo:   opts.Repo,
		cache:  opts.Cache,
		logger: logger,
	}, nil
}

// MustNewStatusService constructs a new StatusService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewStatusService(opts StatusServiceOptions) *StatusService {
	svc, err := NewStatusService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create StatusService: %v", err))
	}
	return svc
}

// Resolve returns the external view for the given job identifier. Completed
// views are immutable, so they are served from cache when available and
// written back after a store hit.
func (s *StatusService) Resolve(ctx context.Context, id string) (*model.JobView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.Validationf("request_id %q is not a valid UUID", id)
	}

	if view := s.cachedView(ctx, id); view != nil {
		return view, nil
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, apperrors.Persistence("resolve job status", err)
	}

	view := ViewOf(job)
	if view.Status == model.ViewStatusComplete {
		s.cacheView(ctx, id, view)
	}

	return view, nil
}

// ResolveAll streams the external view of every stored job through fn.
func (s *StatusService) ResolveAll(ctx context.Context, fn func(id string, view *model.JobView) error) error {
	err := s.repo.ListAll(ctx, func(job *model.Job) error {
		return fn(job.ID, ViewOf(job))
	})
	if err != nil {
		return apperrors.Persistence("list jobs", err)
	}
	return nil
}

// ViewOf projects a job record onto the external status vocabulary.
func ViewOf(job *model.Job) *model.JobView {
	if job.Status == model.JobStatusCompleted {
		return &model.JobView{
			Status: model.ViewStatusComplete,
			Result: job.Result,
		}
	}
	return &model.JobView{Status: model.ViewStatusProcessing}
}

// cachedView returns a decoded cached view, or nil on miss or any cache fault.
// Cache faults never fail a read; the store remains authoritative.
func (s *StatusService) cachedView(ctx context.Context, id string) *model.JobView {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, id)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "view cache read failed", "id", id, "error", err)
		}
		return nil
	}
	if raw == nil {
		return nil
	}

	var view model.JobView
	if err := json.Unmarshal(raw, &view); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "view cache entry corrupt, ignoring", "id", id, "error", err)
		}
		return nil
	}
	return &view
}

func (s *StatusService) cacheView(ctx context.Context, id string, view *model.JobView) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, id, raw); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "view cache write failed", "id", id, "error", err)
	}
}
