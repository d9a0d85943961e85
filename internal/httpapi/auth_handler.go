package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/virtual-office/internal/office"
)

type sessionService interface {
	Login(ctx context.Context, params office.LoginParams) (office.LoginResult, error)
	Logout(ctx context.Context, principalID string) error
}

// AuthHandler serves login and logout for both employee and visitor modes.
type AuthHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service sessionService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type loginRequest struct {
	Mode        string `json:"mode"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	InviteCode  string `json:"inviteCode"`
	DisplayName string `json:"displayName"`
}

type loginResponse struct {
	Token     string        `json:"token"`
	Principal principalView `json:"principal"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	mode := office.LoginMode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = office.LoginEmployee
	}
	logger := h.log(r.Context(), "Login", "mode", string(mode))

	result, err := h.service.Login(r.Context(), office.LoginParams{
		Mode:        mode,
		Email:       req.Email,
		Password:    req.Password,
		InviteCode:  req.InviteCode,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("principal_id", result.Principal.ID).InfoContext(r.Context(), "principal logged in")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loginResponse{
		Token:     result.Token,
		Principal: toPrincipalView(result.Principal),
	})
}

// Logout handles DELETE /sessions/current.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	if err := h.service.Logout(r.Context(), principal.ID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Logout", "principal_id", principal.ID).InfoContext(r.Context(), "principal logged out")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
