// Package web implements the HTML driving adapter: templ components for the
// debug bar and the user panel's login route.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/userpanel/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/userpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

const userFormField = "user"

// Handler is the web driving adapter that serves HTML via templ components.
type Handler struct {
	panels   *UserPanelFactory
	sessions SessionLoader
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(panels *UserPanelFactory, sessions SessionLoader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		panels:   panels,
		sessions: sessions,
		logger:   logger,
	}
}

// Home renders the demo host page. The debug bar is injected by middleware.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	page := vm.HomeViewModel{Title: "userpanel demo", Greeting: "Hello, " + model.GuestLabel}
	if s := h.sessions(w, r); s.IsLoggedIn() {
		if id := s.Identity(); id != nil {
			page.Greeting = "Hello, " + id.ID()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Home(page).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render home", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Login handles the quick-switch form submitted from the user panel.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	selected := r.PostFormValue(userFormField)
	if selected == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	panel, err := h.panels.New(w, r)
	if err != nil {
		h.logger.Error("failed to build user panel", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := panel.HandleLoginSubmit(r.Context(), selected); err != nil {
		if errors.Is(err, application.ErrUnknownCredentials) {
			http.Error(w, "unknown user", http.StatusBadRequest)
			return
		}
		h.logger.Error("user panel login failed", "username", selected, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
