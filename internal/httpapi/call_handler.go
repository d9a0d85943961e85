package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/virtual-office/internal/office"
)

type callService interface {
	StartDirectCall(ctx context.Context, initiatorID, targetID string) (office.CallSession, error)
	OfferIncomingCall(ctx context.Context, callerID, targetID, roomID string) (office.Offer, error)
	AcceptCall(ctx context.Context, targetID string) (office.CallSession, error)
	RejectCall(ctx context.Context, targetID string) error
	InviteToCall(ctx context.Context, inviterID string, targetIDs []string) (office.InviteToCallResult, error)
	LeaveCall(ctx context.Context, principalID string) error
}

// CallHandler serves call signaling commands for the authenticated
// principal.
type CallHandler struct {
	service   callService
	responder responder
	logger    *slog.Logger
}

// NewCallHandler constructs the handler.
func NewCallHandler(service callService, logger *slog.Logger) *CallHandler {
	base := defaultLogger(logger)
	return &CallHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CallHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CallHandler", operation, attrs...)
}

func (h *CallHandler) principal(w http.ResponseWriter, r *http.Request) (office.Principal, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
	}
	return principal, ok
}

type callTargetRequest struct {
	TargetID string `json:"targetId"`
	RoomID   string `json:"roomId"`
}

// Direct handles POST /calls/direct.
func (h *CallHandler) Direct(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req callTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.StartDirectCall(r.Context(), principal.ID, req.TargetID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Direct", "session_id", session.ID).InfoContext(r.Context(), "direct call started")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSessionView(session))
}

// Offer handles POST /calls/offer.
func (h *CallHandler) Offer(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req callTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	offer, err := h.service.OfferIncomingCall(r.Context(), principal.ID, req.TargetID, req.RoomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Offer", "offer_id", offer.ID).InfoContext(r.Context(), "call offered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toOfferView(offer))
}

// Accept handles POST /calls/accept.
func (h *CallHandler) Accept(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	session, err := h.service.AcceptCall(r.Context(), principal.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Accept", "session_id", session.ID).InfoContext(r.Context(), "call accepted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionView(session))
}

// Reject handles POST /calls/reject.
func (h *CallHandler) Reject(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.service.RejectCall(r.Context(), principal.ID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Reject").InfoContext(r.Context(), "call rejected")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type inviteToCallRequest struct {
	TargetIDs []string `json:"targetIds"`
}

type inviteToCallResponse struct {
	OfferedIDs []string `json:"offeredIds"`
	SkippedIDs []string `json:"skippedIds"`
}

// Invite handles POST /calls/invite.
func (h *CallHandler) Invite(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req inviteToCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.InviteToCall(r.Context(), principal.ID, req.TargetIDs)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Invite", "offered", len(result.OfferedIDs)).InfoContext(r.Context(), "call invitations placed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, inviteToCallResponse{
		OfferedIDs: emptyIfNil(result.OfferedIDs),
		SkippedIDs: emptyIfNil(result.SkippedIDs),
	})
}

// Leave handles POST /calls/leave.
func (h *CallHandler) Leave(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.service.LeaveCall(r.Context(), principal.ID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Leave", "principal_id", principal.ID).InfoContext(r.Context(), "call left")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
