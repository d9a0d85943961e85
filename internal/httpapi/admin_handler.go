package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/virtual-office/internal/office"
)

type adminService interface {
	CreateInvite(ctx context.Context, actor office.Principal, duration time.Duration) (office.VisitorInvite, error)
	ListInvites(ctx context.Context, actor office.Principal) ([]office.VisitorInvite, error)
	SetWorkingHours(ctx context.Context, actor office.Principal, policy office.WorkingHours) error
	WorkingHoursPolicy() office.WorkingHours
}

// AdminHandler serves invite issuance and office policy management.
type AdminHandler struct {
	service   adminService
	responder responder
	logger    *slog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service adminService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

type createInviteRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

// CreateInvite handles POST /invites.
func (h *AdminHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	invite, err := h.service.CreateInvite(r.Context(), actor, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "CreateInvite", "invite_id", invite.ID).InfoContext(r.Context(), "invite created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toInviteView(invite))
}

// ListInvites handles GET /invites.
func (h *AdminHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	invites, err := h.service.ListInvites(r.Context(), actor)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]inviteView, 0, len(invites))
	for _, invite := range invites {
		views = append(views, toInviteView(invite))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

type workingHoursRequest struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// GetWorkingHours handles GET /policy/working-hours.
func (h *AdminHandler) GetWorkingHours(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPolicyView(h.service.WorkingHoursPolicy()))
}

// SetWorkingHours handles PUT /policy/working-hours.
func (h *AdminHandler) SetWorkingHours(w http.ResponseWriter, r *http.Request) {
	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req workingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	policy := office.WorkingHours{Enabled: req.Enabled}
	if req.Enabled {
		vErr := &office.ValidationError{FieldErrors: map[string]string{}}
		start, err := office.ParseClock(req.Start)
		if err != nil {
			vErr.FieldErrors["start"] = err.Error()
		}
		end, err := office.ParseClock(req.End)
		if err != nil {
			vErr.FieldErrors["end"] = err.Error()
		}
		if vErr.HasErrors() {
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}
		policy.Start = start
		policy.End = end
	}

	if err := h.service.SetWorkingHours(r.Context(), actor, policy); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "SetWorkingHours", "enabled", policy.Enabled).InfoContext(r.Context(), "working hours updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPolicyView(policy))
}
