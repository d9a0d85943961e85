package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/virtual-office/internal/office"
)

type presenceService interface {
	ListPresence(ctx context.Context) []office.Principal
	UpdateStatus(ctx context.Context, principalID string, status office.Status, message string) (office.Principal, error)
}

// PresenceHandler serves the presence roster and status updates.
type PresenceHandler struct {
	service   presenceService
	responder responder
	logger    *slog.Logger
}

// NewPresenceHandler constructs the handler.
func NewPresenceHandler(service presenceService, logger *slog.Logger) *PresenceHandler {
	base := defaultLogger(logger)
	return &PresenceHandler{service: service, responder: newResponder(base), logger: base}
}

// List handles GET /presence.
func (h *PresenceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principals := h.service.ListPresence(r.Context())
	views := make([]principalView, 0, len(principals))
	for _, principal := range principals {
		views = append(views, toPrincipalView(principal))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Update handles PUT /presence for the authenticated principal.
func (h *PresenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger(r.Context(), h.logger, "PresenceHandler", "Update", "error_kind", "bad_request").
			ErrorContext(r.Context(), "failed to decode status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), principal.ID, office.Status(req.Status), req.Message)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPrincipalView(updated))
}
