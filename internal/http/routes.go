package httpx

import (
	"net/http"

	"github.com/relayworks/jobrelay/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Submission *service.SubmissionService
	Status     *service.StatusService
	Completion *service.CompletionService
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{
		Submission: services.Submission,
		Status:     services.Status,
	}
	webhookHandlers := &WebhookHandlers{Completion: services.Completion}

	mux.Handle("POST /jobs", http.HandlerFunc(jobHandlers.SubmitJob))
	mux.Handle("GET /jobs", http.HandlerFunc(jobHandlers.ListJobs))
	mux.Handle("GET /jobs/{id}", http.HandlerFunc(jobHandlers.GetJobStatus))
	mux.Handle("POST /vendor-webhook/{vendor_id}", http.HandlerFunc(webhookHandlers.VendorWebhook))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}
