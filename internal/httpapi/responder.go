package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/virtual-office/internal/office"
)

var (
	errBadRequestBody      = errors.New("invalid request body")
	errMissingSessionToken = errors.New("a session token is required")
)

type errorResponse struct {
	ErrorCode string            `json:"errorCode,omitempty"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps the office error taxonomy onto HTTP statuses.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "command rejected", "error", err, "error_kind", office.ErrorKind(err))

	switch {
	case errors.Is(err, office.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "OFFICE_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
	case errors.Is(err, office.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "OFFICE_NOT_FOUND",
			Message:   "the requested principal, room, or invite does not exist",
		})
	case errors.Is(err, office.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "email or password is incorrect",
		})
	case errors.Is(err, office.ErrInvalidInviteCode):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "INVITE_INVALID_CODE",
			Message:   "no invite carries this code",
		})
	case errors.Is(err, office.ErrInviteExpired):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "INVITE_EXPIRED",
			Message:   "the invite is no longer valid",
		})
	case errors.Is(err, office.ErrInviteUsed):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVITE_ALREADY_USED",
			Message:   "the invite has already been redeemed",
		})
	case errors.Is(err, office.ErrCodeCollision):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVITE_CODE_COLLISION",
			Message:   "could not allocate a unique invite code",
		})
	case errors.Is(err, office.ErrOutsideWorkingHours):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "POLICY_OUTSIDE_WORKING_HOURS",
			Message:   "the office is closed right now",
		})
	case errors.Is(err, office.ErrRoomLocked):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ROOM_LOCKED",
			Message:   "this room can only be entered by invitation",
		})
	case errors.Is(err, office.ErrNoActiveCall):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "CALL_NOT_ACTIVE",
			Message:   "you are not in a call",
		})
	case errors.Is(err, office.ErrNoPendingOffer):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "CALL_NO_PENDING_OFFER",
			Message:   "there is no unresolved call offer for you",
		})
	case errors.Is(err, office.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "OFFICE_CONFLICT",
			Message:   "the operation conflicts with current office state",
		})
	default:
		var vErr *office.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				ErrorCode: "VALIDATION_FAILED",
				Message:   "one or more fields are invalid",
				Details:   vErr.FieldErrors,
			})
			return
		}
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			Message: "an internal error occurred",
		})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := loggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, method := range allowed {
		w.Header().Add("Allow", method)
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
