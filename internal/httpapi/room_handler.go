package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/virtual-office/internal/office"
)

type roomService interface {
	ListRooms(ctx context.Context) []office.Room
	CreateRoom(ctx context.Context, actor office.Principal, input office.RoomInput) (office.Room, error)
	DeleteRoom(ctx context.Context, actor office.Principal, roomID string) error
	EnterRoom(ctx context.Context, principalID, roomID string) (office.Room, error)
}

// RoomHandler serves the room catalog and room entry.
type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

// NewRoomHandler constructs the handler.
func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

// List handles GET /rooms.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rooms := h.service.ListRooms(r.Context())
	views := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, toRoomView(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity"`
}

// Create handles POST /rooms.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), actor, office.RoomInput{
		Name:     req.Name,
		Kind:     office.RoomKind(req.Kind),
		Capacity: req.Capacity,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomView(room))
}

// Delete handles DELETE /rooms/{id}.
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || roomID == "" {
		http.NotFound(w, r)
		return
	}

	if err := h.service.DeleteRoom(r.Context(), actor, roomID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "room_id", roomID).InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Enter handles POST /rooms/{id}/enter.
func (h *RoomHandler) Enter(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || roomID == "" {
		http.NotFound(w, r)
		return
	}

	room, err := h.service.EnterRoom(r.Context(), principal.ID, roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Enter", "room_id", roomID, "principal_id", principal.ID).InfoContext(r.Context(), "room entered")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomView(room))
}
