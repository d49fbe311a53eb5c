package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_Valid(t *testing.T) {
	assert.True(t, JobStatusPending.Valid())
	assert.True(t, JobStatusProcessing.Valid())
	assert.True(t, JobStatusCompleted.Valid())
	assert.True(t, JobStatusFailed.Valid())
	assert.False(t, JobStatus("queued").Valid())
	assert.False(t, JobStatus("").Valid())
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestVendorType_UnmarshalText(t *testing.T) {
	var vt VendorType
	require.NoError(t, vt.UnmarshalText([]byte("async")))
	assert.Equal(t, VendorTypeAsync, vt)

	require.NoError(t, vt.UnmarshalText([]byte("  SYNC ")))
	assert.Equal(t, VendorTypeSync, vt)

	err := vt.UnmarshalText([]byte("batch"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid vendor type")
}

func TestSubmitJobRequest_Validate(t *testing.T) {
	payload := json.RawMessage(`{"order_id":"abc-123"}`)

	tests := []struct {
		name        string
		req         SubmitJobRequest
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid sync request",
			req:  SubmitJobRequest{Vendor: "acme", VendorType: VendorTypeSync, Payload: payload},
		},
		{
			name: "valid async request",
			req:  SubmitJobRequest{Vendor: "acme", VendorType: VendorTypeAsync, Payload: payload},
		},
		{
			name:        "missing vendor",
			req:         SubmitJobRequest{VendorType: VendorTypeSync, Payload: payload},
			expectError: true,
			errorMsg:    "vendor is required",
		},
		{
			name:        "whitespace vendor",
			req:         SubmitJobRequest{Vendor: "   ", VendorType: VendorTypeSync, Payload: payload},
			expectError: true,
			errorMsg:    "vendor is required",
		},
		{
			name:        "invalid vendor type",
			req:         SubmitJobRequest{Vendor: "acme", VendorType: "batch", Payload: payload},
			expectError: true,
			errorMsg:    "vendor_type must be sync or async",
		},
		{
			name:        "missing payload",
			req:         SubmitJobRequest{Vendor: "acme", VendorType: VendorTypeSync},
			expectError: true,
			errorMsg:    "payload is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompletionRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		req         CompletionRequest
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid UUID",
			req:  CompletionRequest{RequestID: "550e8400-e29b-41d4-a716-446655440000"},
		},
		{
			name:        "missing request id",
			req:         CompletionRequest{},
			expectError: true,
			errorMsg:    "request_id is required",
		},
		{
			name:        "malformed UUID",
			req:         CompletionRequest{RequestID: "not-a-uuid"},
			expectError: true,
			errorMsg:    "request_id must be a valid UUID",
		},
		{
			name:        "truncated UUID",
			req:         CompletionRequest{RequestID: "550e8400-e29b-41d4-a716"},
			expectError: true,
			errorMsg:    "request_id must be a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewQueueMessageSnapshotsJob(t *testing.T) {
	job := &Job{
		ID:         "550e8400-e29b-41d4-a716-446655440000",
		Status:     JobStatusPending,
		Vendor:     "acme",
		VendorType: VendorTypeAsync,
		Payload:    json.RawMessage(`{"order_id":"abc-123"}`),
	}

	msg := NewQueueMessage(job)
	assert.Equal(t, job.ID, msg.RequestID)
	assert.Equal(t, job.Vendor, msg.Vendor)
	assert.Equal(t, job.VendorType, msg.VendorType)
	assert.JSONEq(t, string(job.Payload), string(msg.Payload))
}

func TestJobViewSerializationOmitsEmptyResult(t *testing.T) {
	raw, err := json.Marshal(&JobView{Status: ViewStatusProcessing})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"processing"}`, string(raw))

	raw, err = json.Marshal(&JobView{
		Status: ViewStatusComplete,
		Result: json.RawMessage(`{"ok":true}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"complete","result":{"ok":true}}`, string(raw))
}
