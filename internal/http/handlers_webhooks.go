package httpx

import (
	"net/http"

	"github.com/relayworks/jobrelay/internal/domain/model"
	"github.com/relayworks/jobrelay/internal/service"
)

// WebhookHandlers provides HTTP handlers for vendor completion callbacks.
type WebhookHandlers struct {
	Completion *service.CompletionService
}

// completionAck is the body returned to a vendor after its signal is handled.
type completionAck struct {
	RequestID string `json:"request_id"`
	Applied   bool   `json:"applied"`
}

// VendorWebhook handles a vendor's completion callback. Redelivered signals
// for already-terminal jobs acknowledge with applied=false; returning an error
// would make well-behaved vendors retry forever.
func (h *WebhookHandlers) VendorWebhook(w http.ResponseWriter, r *http.Request) {
	vendorID := r.PathValue("vendor_id")

	var req model.CompletionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	applied, err := h.Completion.Ingest(r.Context(), vendorID, &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, completionAck{RequestID: req.RequestID, Applied: applied})
}
