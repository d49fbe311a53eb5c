package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/domain/model"
	"github.com/relayworks/jobrelay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *model.Job {
	return &model.Job{
		ID:         uuid.NewString(),
		Status:     model.JobStatusPending,
		Vendor:     "acme",
		VendorType: model.VendorTypeAsync,
		Payload:    json.RawMessage(`{"order_id": "abc-123"}`),
	}
}

func TestJobRepo_InsertAndGetByID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewJobRepo(db, RepoConfig{})

	job := newTestJob()
	require.NoError(t, repo.Insert(context.Background(), job))
	assert.False(t, job.CreatedAt.IsZero())
	assert.False(t, job.UpdatedAt.IsZero())

	got, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, model.JobStatusPending, got.Status)
	assert.Equal(t, "acme", got.Vendor)
	assert.Equal(t, model.VendorTypeAsync, got.VendorType)
	assert.JSONEq(t, string(job.Payload), string(got.Payload))
	assert.Nil(t, got.Result)
	assert.Nil(t, got.CompletedAt)
}

func TestJobRepo_InsertDuplicateID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewJobRepo(db, RepoConfig{})

	job := newTestJob()
	require.NoError(t, repo.Insert(context.Background(), job))

	dup := newTestJob()
	dup.ID = job.ID
	err := repo.Insert(context.Background(), dup)
	require.ErrorIs(t, err, ErrDuplicateJob)
}

func TestJobRepo_GetByIDNotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewJobRepo(db, RepoConfig{})

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobRepo_CompleteIf(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewJobRepo(db, RepoConfig{})

	allowed := []model.JobStatus{model.JobStatusPending, model.JobStatusProcessing}
	result := json.RawMessage(`{"outcome": "shipped"}`)

	t.Run("applies on pending job", func(t *testing.T) {
		job := newTestJob()
		require.NoError(t, repo.Insert(context.Background(), job))

		applied, err := repo.CompleteIf(context.Background(), core.CompleteIfParams{
			ID:      job.ID,
			Allowed: allowed,
			Status:  model.JobStatusCompleted,
			Result:  result,
		})
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := repo.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, got.Status)
		assert.JSONEq(t, string(result), string(got.Result))
		require.NotNil(t, got.CompletedAt)
		assert.WithinDuration(t, time.Now(), *got.CompletedAt, time.Minute)
	})

	t.Run("redelivery does not overwrite", func(t *testing.T) {
		job := newTestJob()
		require.NoError(t, repo.Insert(context.Background(), job))

		applied, err := repo.CompleteIf(context.Background(), core.CompleteIfParams{
			ID:      job.ID,
			Allowed: allowed,
			Status:  model.JobStatusCompleted,
			Result:  result,
		})
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = repo.CompleteIf(context.Background(), core.CompleteIfParams{
			ID:      job.ID,
			Allowed: allowed,
			Status:  model.JobStatusCompleted,
			Result:  json.RawMessage(`{"outcome": "different"}`),
		})
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := repo.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.JSONEq(t, string(result), string(got.Result))
	})

	t.Run("guard mismatch reports not applied", func(t *testing.T) {
		applied, err := repo.CompleteIf(context.Background(), core.CompleteIfParams{
			ID:      uuid.NewString(),
			Allowed: allowed,
			Status:  model.JobStatusFailed,
		})
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("rejects non-terminal target status", func(t *testing.T) {
		_, err := repo.CompleteIf(context.Background(), core.CompleteIfParams{
			ID:      uuid.NewString(),
			Allowed: allowed,
			Status:  model.JobStatusProcessing,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not terminal")
	})

	t.Run("rejects empty allowed set", func(t *testing.T) {
		_, err := repo.CompleteIf(context.Background(), core.CompleteIfParams{
			ID:     uuid.NewString(),
			Status: model.JobStatusCompleted,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowed statuses are required")
	})
}

func TestJobRepo_ListStalePending(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	base := testutil.TestTime()
	tp := NewFixedTimeProvider(base)
	repo := NewJobRepo(db, RepoConfig{TimeProvider: tp})

	// Two old pending jobs, one fresh, one old but completed.
	oldA := newTestJob()
	require.NoError(t, repo.Insert(context.Background(), oldA))
	tp.AddTime(time.Minute)
	oldB := newTestJob()
	require.NoError(t, repo.Insert(context.Background(), oldB))

	oldDone := newTestJob()
	require.NoError(t, repo.Insert(context.Background(), oldDone))
	applied, err := repo.CompleteIf(context.Background(), core.CompleteIfParams{
		ID:      oldDone.ID,
		Allowed: []model.JobStatus{model.JobStatusPending},
		Status:  model.JobStatusCompleted,
	})
	require.NoError(t, err)
	require.True(t, applied)

	tp.AddTime(10 * time.Minute)
	fresh := newTestJob()
	require.NoError(t, repo.Insert(context.Background(), fresh))

	stale, err := repo.ListStalePending(context.Background(), core.StalePendingParams{
		MaxAge:    5 * time.Minute,
		BatchSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, stale, 2)
	// Oldest first.
	assert.Equal(t, oldA.ID, stale[0].ID)
	assert.Equal(t, oldB.ID, stale[1].ID)

	t.Run("batch size caps results", func(t *testing.T) {
		capped, listErr := repo.ListStalePending(context.Background(), core.StalePendingParams{
			MaxAge:    5 * time.Minute,
			BatchSize: 1,
		})
		require.NoError(t, listErr)
		require.Len(t, capped, 1)
		assert.Equal(t, oldA.ID, capped[0].ID)
	})

	t.Run("rejects non-positive max age", func(t *testing.T) {
		_, listErr := repo.ListStalePending(context.Background(), core.StalePendingParams{BatchSize: 10})
		require.Error(t, listErr)
	})
}

func TestJobRepo_ListAllAndDeleteAll(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewJobRepo(db, RepoConfig{})

	for range 3 {
		require.NoError(t, repo.Insert(context.Background(), newTestJob()))
	}

	seen := 0
	require.NoError(t, repo.ListAll(context.Background(), func(*model.Job) error {
		seen++
		return nil
	}))
	assert.Equal(t, 3, seen)

	deleted, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	seen = 0
	require.NoError(t, repo.ListAll(context.Background(), func(*model.Job) error {
		seen++
		return nil
	}))
	assert.Zero(t, seen)
}
