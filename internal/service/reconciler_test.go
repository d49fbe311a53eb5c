package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/jobrelay/config"
	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/domain/model"
	"github.com/relayworks/jobrelay/internal/mocks"
	"go.uber.org/mock/gomock"
)

// fakePublisher records published messages and can fail specific jobs.
type fakePublisher struct {
	mu        sync.Mutex
	published []model.QueueMessage
	failIDs   map[string]error
}

func (f *fakePublisher) Publish(_ context.Context, msg model.QueueMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failIDs[msg.RequestID]; ok {
		return err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) publishedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.published))
	for i, msg := range f.published {
		ids[i] = msg.RequestID
	}
	return ids
}

func testReconcilerConfig() config.ReconcilerConfig {
	cfg := config.ReconcilerConfig{
		Interval:      time.Minute,
		PendingMaxAge: 5 * time.Minute,
		BatchSize:     10,
		Concurrency:   2,
	}
	cfg.Sanitize()
	return cfg
}

func TestReconcilerService_SweepRepublishesStaleJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stale := []*model.Job{
		{ID: "job-1", Status: model.JobStatusPending, Vendor: "acme"},
		{ID: "job-2", Status: model.JobStatusPending, Vendor: "acme"},
	}

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockRepo.EXPECT().
		ListStalePending(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.StalePendingParams) ([]*model.Job, error) {
			assert.Equal(t, 5*time.Minute, params.MaxAge)
			assert.Equal(t, 10, params.BatchSize)
			return stale, nil
		}).
		Times(1)

	pub := &fakePublisher{}
	svc := MustNewReconcilerService(ReconcilerServiceOptions{
		Repo:      mockRepo,
		Publisher: pub,
		Config:    testReconcilerConfig(),
	})

	require.NoError(t, svc.runSweep(context.Background()))
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, pub.publishedIDs())
}

func TestReconcilerService_SweepEmptyBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockRepo.EXPECT().ListStalePending(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	pub := &fakePublisher{}
	svc := MustNewReconcilerService(ReconcilerServiceOptions{
		Repo:      mockRepo,
		Publisher: pub,
		Config:    testReconcilerConfig(),
	})

	require.NoError(t, svc.runSweep(context.Background()))
	assert.Empty(t, pub.publishedIDs())
}

func TestReconcilerService_SweepContinuesPastPublishFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stale := []*model.Job{
		{ID: "job-1", Status: model.JobStatusPending},
		{ID: "job-2", Status: model.JobStatusPending},
		{ID: "job-3", Status: model.JobStatusPending},
	}

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockRepo.EXPECT().ListStalePending(gomock.Any(), gomock.Any()).Return(stale, nil).Times(1)

	pub := &fakePublisher{failIDs: map[string]error{
		"job-2": errors.New("broker unavailable"),
	}}
	svc := MustNewReconcilerService(ReconcilerServiceOptions{
		Repo:      mockRepo,
		Publisher: pub,
		Config:    testReconcilerConfig(),
	})

	err := svc.runSweep(context.Background())
	require.Error(t, err)

	// The failing job does not block the rest of the batch.
	assert.ElementsMatch(t, []string{"job-1", "job-3"}, pub.publishedIDs())
}

func TestReconcilerService_SweepListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockRepo.EXPECT().
		ListStalePending(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused")).
		Times(1)

	svc := MustNewReconcilerService(ReconcilerServiceOptions{
		Repo:      mockRepo,
		Publisher: &fakePublisher{},
		Config:    testReconcilerConfig(),
	})

	require.Error(t, svc.runSweep(context.Background()))
}

func TestReconcilerService_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockJobRepository(ctrl)
	mockRepo.EXPECT().ListStalePending(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	svc := MustNewReconcilerService(ReconcilerServiceOptions{
		Repo:      mockRepo,
		Publisher: &fakePublisher{},
		Config:    testReconcilerConfig(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		// Graceful shutdown is not an error.
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
}

func TestNewReconcilerService_RequiredDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewReconcilerService(ReconcilerServiceOptions{
		Publisher: &fakePublisher{},
		Config:    testReconcilerConfig(),
	})
	require.Error(t, err)

	_, err = NewReconcilerService(ReconcilerServiceOptions{
		Repo:   mocks.NewMockJobRepository(ctrl),
		Config: testReconcilerConfig(),
	})
	require.Error(t, err)
}
