package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/domain/model"
	apperrors "github.com/relayworks/jobrelay/internal/errors"
	"github.com/relayworks/jobrelay/internal/mocks"
)

func validSubmitRequest() *model.SubmitJobRequest {
	return &model.SubmitJobRequest{
		Vendor:     "acme",
		VendorType: model.VendorTypeAsync,
		Payload:    json.RawMessage(`{"document":"abc"}`),
	}
}

func TestNewSubmissionService_RequiredDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewSubmissionService(SubmissionServiceOptions{
		Publisher: mocks.NewMockQueuePublisher(ctrl),
	})
	require.Error(t, err)

	_, err = NewSubmissionService(SubmissionServiceOptions{
		Repo: mocks.NewMockJobRepository(ctrl),
	})
	require.Error(t, err)
}

func TestSubmissionService_Submit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockPub := mocks.NewMockQueuePublisher(ctrl)
	svc := MustNewSubmissionService(SubmissionServiceOptions{
		Repo:      mockRepo,
		Publisher: mockPub,
	})

	var inserted *model.Job
	mockRepo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job *model.Job) error {
			inserted = job
			return nil
		}).
		Times(1)

	var published model.QueueMessage
	mockPub.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg model.QueueMessage) error {
			published = msg
			return nil
		}).
		Times(1)

	job, err := svc.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)
	require.NotNil(t, job)

	// A fresh identifier is assigned server-side and the record goes in pending.
	_, parseErr := uuid.Parse(job.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Same(t, inserted, job)

	// The queue message is a full snapshot of the persisted job.
	assert.Equal(t, job.ID, published.RequestID)
	assert.Equal(t, "acme", published.Vendor)
	assert.Equal(t, model.VendorTypeAsync, published.VendorType)
	assert.JSONEq(t, `{"document":"abc"}`, string(published.Payload))
}

func TestSubmissionService_Submit_UniqueIdentifiers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockPub := mocks.NewMockQueuePublisher(ctrl)
	svc := MustNewSubmissionService(SubmissionServiceOptions{
		Repo:      mockRepo,
		Publisher: mockPub,
	})

	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	mockPub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	// Identical payloads are distinct jobs.
	first, err := svc.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmissionService_Submit_ValidationErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No repo or publisher calls are expected for invalid input.
	svc := MustNewSubmissionService(SubmissionServiceOptions{
		Repo:      mocks.NewMockJobRepository(ctrl),
		Publisher: mocks.NewMockQueuePublisher(ctrl),
	})

	tests := []struct {
		name string
		req  *model.SubmitJobRequest
	}{
		{name: "nil request", req: nil},
		{
			name: "missing vendor",
			req: &model.SubmitJobRequest{
				VendorType: model.VendorTypeSync,
				Payload:    json.RawMessage(`{}`),
			},
		},
		{
			name: "invalid vendor type",
			req: &model.SubmitJobRequest{
				Vendor:     "acme",
				VendorType: "batch",
				Payload:    json.RawMessage(`{}`),
			},
		},
		{
			name: "missing payload",
			req: &model.SubmitJobRequest{
				Vendor:     "acme",
				VendorType: model.VendorTypeSync,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job, err := svc.Submit(context.Background(), tc.req)
			require.Error(t, err)
			assert.Nil(t, job)
			assert.Equal(t, apperrors.ErrCodeValidation, apperrors.CodeOf(err))
		})
	}
}

func TestSubmissionService_Submit_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockPub := mocks.NewMockQueuePublisher(ctrl)
	svc := MustNewSubmissionService(SubmissionServiceOptions{
		Repo:      mockRepo,
		Publisher: mockPub,
	})

	storeErr := errors.New("connection refused")
	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(storeErr).Times(1)
	// Nothing is published when the store write fails.

	job, err := svc.Submit(context.Background(), validSubmitRequest())
	require.Error(t, err)
	assert.Nil(t, job)
	assert.Equal(t, apperrors.ErrCodePersistence, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, storeErr)
}

func TestSubmissionService_Submit_DuplicateIdentifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	svc := MustNewSubmissionService(SubmissionServiceOptions{
		Repo:      mockRepo,
		Publisher: mocks.NewMockQueuePublisher(ctrl),
	})

	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(data.ErrDuplicateJob).Times(1)

	job, err := svc.Submit(context.Background(), validSubmitRequest())
	require.Error(t, err)
	assert.Nil(t, job)
	assert.Equal(t, apperrors.ErrCodeDuplicate, apperrors.CodeOf(err))
}

func TestSubmissionService_Submit_EnqueueFailureCarriesID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockPub := mocks.NewMockQueuePublisher(ctrl)
	svc := MustNewSubmissionService(SubmissionServiceOptions{
		Repo:      mockRepo,
		Publisher: mockPub,
	})

	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	pubErr := errors.New("broker unavailable")
	mockPub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(pubErr).Times(1)

	job, err := svc.Submit(context.Background(), validSubmitRequest())
	require.Error(t, err)

	// The record is persisted; the caller still learns its identifier.
	require.NotNil(t, job)
	assert.Equal(t, apperrors.ErrCodeEnqueue, apperrors.CodeOf(err))
	assert.Equal(t, job.ID, apperrors.JobIDOf(err))
	assert.ErrorIs(t, err, pubErr)
}
