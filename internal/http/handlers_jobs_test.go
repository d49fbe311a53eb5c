package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/domain/model"
	"github.com/relayworks/jobrelay/internal/service"
)

// memJobRepo is an in-memory JobRepository for handler tests.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*model.Job)}
}

func (m *memJobRepo) Insert(_ context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return data.ErrDuplicateJob
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, data.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *memJobRepo) CompleteIf(_ context.Context, params core.CompleteIfParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[params.ID]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, status := range params.Allowed {
		if job.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	now := time.Now()
	job.Status = params.Status
	job.Result = params.Result
	job.CompletedAt = &now
	job.UpdatedAt = now
	return true, nil
}

func (m *memJobRepo) ListAll(_ context.Context, fn func(*model.Job) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		cp := *job
		if err := fn(&cp); err != nil {
			return err
		}
	}
	return nil
}

func (m *memJobRepo) ListStalePending(_ context.Context, _ core.StalePendingParams) ([]*model.Job, error) {
	return nil, nil
}

func (m *memJobRepo) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.jobs))
	m.jobs = make(map[string]*model.Job)
	return n, nil
}

// memPublisher records messages and optionally fails every publish.
type memPublisher struct {
	mu       sync.Mutex
	messages []model.QueueMessage
	err      error
}

func (p *memPublisher) Publish(_ context.Context, msg model.QueueMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newTestRouter(t *testing.T, repo core.JobRepository, pub core.QueuePublisher) http.Handler {
	t.Helper()

	submission := service.MustNewSubmissionService(service.SubmissionServiceOptions{
		Repo:      repo,
		Publisher: pub,
	})
	status := service.MustNewStatusService(service.StatusServiceOptions{Repo: repo})
	completion := service.MustNewCompletionService(service.CompletionServiceOptions{Repo: repo})

	return NewRouter(RouterServices{
		Submission: submission,
		Status:     status,
		Completion: completion,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitThenCompleteLifecycle(t *testing.T) {
	repo := newMemJobRepo()
	pub := &memPublisher{}
	router := newTestRouter(t, repo, pub)

	// Submit
	rec := doJSON(t, router, http.MethodPost, "/jobs",
		`{"vendor":"acme","vendor_type":"async","payload":{"document":"abc"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted model.JobAcceptedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	_, err := uuid.Parse(accepted.RequestID)
	require.NoError(t, err)

	// The queue saw a full snapshot.
	require.Len(t, pub.messages, 1)
	assert.Equal(t, accepted.RequestID, pub.messages[0].RequestID)

	// Status before completion reads processing with no result.
	rec = doJSON(t, router, http.MethodGet, "/jobs/"+accepted.RequestID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view model.JobView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, model.ViewStatusProcessing, view.Status)
	assert.Empty(t, view.Result)

	// Vendor completes the job.
	rec = doJSON(t, router, http.MethodPost, "/vendor-webhook/acme",
		`{"request_id":"`+accepted.RequestID+`","data":{"verdict":"pass"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ack struct {
		RequestID string `json:"request_id"`
		Applied   bool   `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack.Applied)

	// Status now reads complete with the vendor's result.
	rec = doJSON(t, router, http.MethodGet, "/jobs/"+accepted.RequestID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, model.ViewStatusComplete, view.Status)
	assert.JSONEq(t, `{"verdict":"pass"}`, string(view.Result))
}

func TestSubmitValidationFailures(t *testing.T) {
	router := newTestRouter(t, newMemJobRepo(), &memPublisher{})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not json`},
		{name: "missing vendor", body: `{"vendor_type":"sync","payload":{}}`},
		{name: "bad vendor type", body: `{"vendor":"acme","vendor_type":"batch","payload":{}}`},
		{name: "missing payload", body: `{"vendor":"acme","vendor_type":"sync"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/jobs", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitEnqueueFailureReturnsRequestID(t *testing.T) {
	repo := newMemJobRepo()
	pub := &memPublisher{err: errors.New("broker unavailable")}
	router := newTestRouter(t, repo, pub)

	rec := doJSON(t, router, http.MethodPost, "/jobs",
		`{"vendor":"acme","vendor_type":"async","payload":{"document":"abc"}}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["request_id"])

	// The record exists despite the enqueue failure and reads processing.
	rec = doJSON(t, router, http.MethodGet, "/jobs/"+body["request_id"], "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view model.JobView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, model.ViewStatusProcessing, view.Status)
}

func TestGetJobStatusErrors(t *testing.T) {
	router := newTestRouter(t, newMemJobRepo(), &memPublisher{})

	rec := doJSON(t, router, http.MethodGet, "/jobs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/jobs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookIdempotentRedelivery(t *testing.T) {
	repo := newMemJobRepo()
	router := newTestRouter(t, repo, &memPublisher{})

	rec := doJSON(t, router, http.MethodPost, "/jobs",
		`{"vendor":"acme","vendor_type":"async","payload":{}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted model.JobAcceptedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	first := doJSON(t, router, http.MethodPost, "/vendor-webhook/acme",
		`{"request_id":"`+accepted.RequestID+`","data":{"attempt":1}}`)
	require.Equal(t, http.StatusOK, first.Code)

	// Redelivery with a different body acknowledges without applying.
	second := doJSON(t, router, http.MethodPost, "/vendor-webhook/acme",
		`{"request_id":"`+accepted.RequestID+`","data":{"attempt":2}}`)
	require.Equal(t, http.StatusOK, second.Code)
	var ack struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &ack))
	assert.False(t, ack.Applied)

	// The first result wins.
	rec = doJSON(t, router, http.MethodGet, "/jobs/"+accepted.RequestID, "")
	var view model.JobView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.JSONEq(t, `{"attempt":1}`, string(view.Result))
}

func TestWebhookErrors(t *testing.T) {
	router := newTestRouter(t, newMemJobRepo(), &memPublisher{})

	// Unknown job.
	rec := doJSON(t, router, http.MethodPost, "/vendor-webhook/acme",
		`{"request_id":"`+uuid.NewString()+`","data":{}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed identifier.
	rec = doJSON(t, router, http.MethodPost, "/vendor-webhook/acme",
		`{"request_id":"nope","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing identifier.
	rec = doJSON(t, router, http.MethodPost, "/vendor-webhook/acme", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobs(t *testing.T) {
	repo := newMemJobRepo()
	router := newTestRouter(t, repo, &memPublisher{})

	// Empty store lists as an empty array.
	rec := doJSON(t, router, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Empty(t, empty)

	for range 3 {
		rec := doJSON(t, router, http.MethodPost, "/jobs",
			`{"vendor":"acme","vendor_type":"sync","payload":{}}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.NotEmpty(t, entry.RequestID)
		assert.Equal(t, model.ViewStatusProcessing, entry.Status)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, newMemJobRepo(), &memPublisher{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodHead, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
