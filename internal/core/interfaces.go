// Package core defines the port interfaces between the service layer and its
// adapters (hexagonal architecture). Services depend on these contracts, not
// on concrete implementations.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/relayworks/jobrelay/internal/domain/model"
)

// JobRepository defines the interface for job store operations.
type JobRepository interface {
	// Insert persists a new job record. Identifier collisions surface as
	// data.ErrDuplicateJob, never silently succeed.
	Insert(ctx context.Context, job *model.Job) error

	// GetByID retrieves a job or data.ErrJobNotFound.
	GetByID(ctx context.Context, id string) (*model.Job, error)

	// CompleteIf atomically sets status and result iff the stored record's
	// current status is in the allowed set. Returns applied=false (no error)
	// when the guard does not match. This conditional update is the sole
	// mutation primitive; it is what makes completion idempotent without
	// external locking.
	CompleteIf(ctx context.Context, params CompleteIfParams) (bool, error)

	// ListAll streams every record through fn. No ordering guarantee.
	// Test/ops use only.
	ListAll(ctx context.Context, fn func(*model.Job) error) error

	// ListStalePending returns pending jobs older than the given age, for
	// the reconciliation sweep.
	ListStalePending(ctx context.Context, params StalePendingParams) ([]*model.Job, error)

	// DeleteAll purges every job record. Ops escape hatch only; not part of
	// the lifecycle contract.
	DeleteAll(ctx context.Context) (int64, error)
}

// CompleteIfParams groups parameters for JobRepository.CompleteIf.
type CompleteIfParams struct {
	ID      string
	Allowed []model.JobStatus
	Status  model.JobStatus
	Result  json.RawMessage
}

// StalePendingParams groups parameters for JobRepository.ListStalePending.
type StalePendingParams struct {
	MaxAge    time.Duration
	BatchSize int
}

// QueuePublisher hands work notifications to a durable queue. Once Publish
// returns nil the message survives a broker restart. Publish failures are
// surfaced, never retried internally; retry policy belongs to the caller.
type QueuePublisher interface {
	Publish(ctx context.Context, msg model.QueueMessage) error
}

// TerminalViewCache caches the external view of completed jobs. Terminal
// views are write-once, so a cached copy can never diverge from the store.
// A nil byte slice with a nil error is a miss.
type TerminalViewCache interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, view []byte) error
}
