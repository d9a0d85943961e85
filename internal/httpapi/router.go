package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
)

// RouterConfig carries the handlers the router mounts.
type RouterConfig struct {
	Auth     *AuthHandler
	Presence *PresenceHandler
	Rooms    *RoomHandler
	Calls    *CallHandler
	Admin    *AdminHandler
	Events   *EventStream

	Validator SessionValidator
	Logger    *slog.Logger
}

// NewRouter assembles the HTTP surface. Every route except /login
// requires a valid session token.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	requireSession := RequireSession(cfg.Validator, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Auth.Login(w, r)
		default:
			methodNotAllowed(w, http.MethodPost)
		}
	})

	mux.Handle("/sessions/current", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			cfg.Auth.Logout(w, r)
		default:
			methodNotAllowed(w, http.MethodDelete)
		}
	})))

	mux.Handle("/presence", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Presence.List(w, r)
		case http.MethodPut:
			cfg.Presence.Update(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	})))

	mux.Handle("/rooms", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Rooms.List(w, r)
		case http.MethodPost:
			cfg.Rooms.Create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})))

	mux.Handle("/rooms/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID, action, ok := splitRoomPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithRoomID(r.Context(), roomID))

		switch {
		case action == "" && r.Method == http.MethodDelete:
			cfg.Rooms.Delete(w, r)
		case action == "enter" && r.Method == http.MethodPost:
			cfg.Rooms.Enter(w, r)
		case action == "":
			methodNotAllowed(w, http.MethodDelete)
		case action == "enter":
			methodNotAllowed(w, http.MethodPost)
		default:
			http.NotFound(w, r)
		}
	})))

	mux.Handle("/calls/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/calls/") {
		case "direct":
			cfg.Calls.Direct(w, r)
		case "offer":
			cfg.Calls.Offer(w, r)
		case "accept":
			cfg.Calls.Accept(w, r)
		case "reject":
			cfg.Calls.Reject(w, r)
		case "invite":
			cfg.Calls.Invite(w, r)
		case "leave":
			cfg.Calls.Leave(w, r)
		default:
			http.NotFound(w, r)
		}
	})))

	mux.Handle("/invites", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Admin.ListInvites(w, r)
		case http.MethodPost:
			cfg.Admin.CreateInvite(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})))

	mux.Handle("/policy/working-hours", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Admin.GetWorkingHours(w, r)
		case http.MethodPut:
			cfg.Admin.SetWorkingHours(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	})))

	if cfg.Events != nil {
		mux.Handle("/events", requireSession(cfg.Events))
	}

	return RequestLogger(logger)(mux)
}

// splitRoomPath breaks "/rooms/{id}" or "/rooms/{id}/{action}" apart.
func splitRoomPath(path string) (roomID, action string, ok bool) {
	rest := strings.TrimPrefix(path, "/rooms/")
	if rest == "" || rest == path {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	roomID = parts[0]
	if roomID == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		action = parts[1]
	}
	return roomID, action, true
}
