// Package model defines the core data types and structures used throughout the jobrelay system.
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the internal lifecycle state of a job.
type JobStatus string

// VendorType describes how the external vendor completes work.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type VendorType string

const (
	// JobStatusPending indicates a job is durably recorded but not yet picked up.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a worker has started on the job.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a job has finished and carries a result.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has permanently failed.
	JobStatusFailed JobStatus = "failed"

	// VendorTypeSync marks vendors that return results inline to the worker.
	VendorTypeSync VendorType = "sync"
	// VendorTypeAsync marks vendors that report completion via webhook.
	VendorTypeAsync VendorType = "async"
)

// Valid returns true if the JobStatus is one of the four lifecycle states.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal returns true once no further status transition is permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid returns true if the VendorType is valid.
func (t VendorType) Valid() bool {
	return t == VendorTypeSync || t == VendorTypeAsync
}

// UnmarshalText implements encoding.TextUnmarshaler for VendorType to allow env parsing.
func (t *VendorType) UnmarshalText(text []byte) error {
	v := VendorType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return errors.New("invalid vendor type: " + string(text))
	}
	*t = v
	return nil
}

// Job represents a job record. The store owns the persisted representation;
// every other component reads and mutates it only through the store contract.
type Job struct {
	ID          string          `json:"request_id"             db:"id"`
	Status      JobStatus       `json:"status"                 db:"status"`
	Vendor      string          `json:"vendor"                 db:"vendor"`
	VendorType  VendorType      `json:"vendor_type"            db:"vendor_type"`
	Payload     json.RawMessage `json:"payload"                db:"payload"`
	Result      json.RawMessage `json:"result,omitempty"       db:"result"`
	CreatedAt   time.Time       `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"             db:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// SubmitJobRequest represents a caller's request to submit a new job.
type SubmitJobRequest struct {
	Vendor     string          `json:"vendor"`
	VendorType VendorType      `json:"vendor_type"`
	Payload    json.RawMessage `json:"payload"`
}

// Validate validates the SubmitJobRequest fields.
func (r *SubmitJobRequest) Validate() error {
	if strings.TrimSpace(r.Vendor) == "" {
		return errors.New("vendor is required")
	}
	if !r.VendorType.Valid() {
		return errors.New("vendor_type must be sync or async")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

// JobAcceptedResponse is the body returned to a caller whose submission was accepted.
type JobAcceptedResponse struct {
	RequestID string `json:"request_id"`
}

// External view vocabulary. Intentionally two-valued: every non-completed
// internal status, including failed, is presented as "processing".
const (
	ViewStatusComplete   = "complete"
	ViewStatusProcessing = "processing"
)

// JobView is the externally visible projection of a job.
type JobView struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// CompletionRequest is a vendor-originated completion signal.
type CompletionRequest struct {
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// Validate rejects missing or malformed identifiers before any store access.
func (r *CompletionRequest) Validate() error {
	if strings.TrimSpace(r.RequestID) == "" {
		return errors.New("request_id is required")
	}
	if _, err := uuid.Parse(r.RequestID); err != nil {
		return errors.New("request_id must be a valid UUID")
	}
	return nil
}

// QueueMessage is the work notification handed to the queue. It carries the
// full job snapshot at creation time; payload content is immutable for the
// life of the job up to that point, so the snapshot cannot go stale.
type QueueMessage struct {
	RequestID  string          `json:"request_id"`
	Vendor     string          `json:"vendor"`
	VendorType VendorType      `json:"vendor_type"`
	Payload    json.RawMessage `json:"payload"`
}

// NewQueueMessage builds the queue notification for a freshly persisted job.
func NewQueueMessage(job *Job) QueueMessage {
	return QueueMessage{
		RequestID:  job.ID,
		Vendor:     job.Vendor,
		VendorType: job.VendorType,
		Payload:    job.Payload,
	}
}
