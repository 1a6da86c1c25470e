package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionLoader returns the session bound to the current request.
type SessionLoader func(w http.ResponseWriter, r *http.Request) driven.UserSession

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	store    Pinger
	sessions SessionLoader
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(store Pinger, sessions SessionLoader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the JSON API routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/v1/session", h.Session)
}

// ApplyMiddleware wraps next with logging and recovery middleware. sessions
// may be nil, in which case every request is logged as the guest. Requests
// under a quiet prefix are logged at debug level.
func ApplyMiddleware(next http.Handler, logger *slog.Logger, sessions SessionLoader, quietPrefixes ...string) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, sessions, quietPrefixes, wrapped)

	return wrapped
}

// Health returns 200 when the store answers a ping and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", "error", err)
			resp.Status = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Session describes the caller's current session. Passwords never appear.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	s := h.sessions(w, r)
	writeJSON(w, http.StatusOK, toSessionResponse(s.IsLoggedIn(), s.Identity()))
}

func toSessionResponse(loggedIn bool, id model.Identity) SessionResponse {
	resp := SessionResponse{
		LoggedIn: loggedIn,
		Roles:    []string{},
		Data:     model.DataOf(id),
	}
	if resp.Data == nil {
		resp.Data = map[string]string{}
	}
	if id == nil {
		return resp
	}

	resp.ID = id.ID()
	if u, ok := id.(*model.User); ok && u.Roles != nil {
		resp.Roles = u.Roles
	}
	return resp
}
