package web

import (
	"io/fs"
	"net/http"

	"github.com/ericfisherdev/userpanel/internal/application"
)

// RegisterRoutes registers the demo page, the debug-bar assets and the user
// panel's login action on the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET "+BasePath+"/static/", http.StripPrefix(BasePath+"/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("POST "+BasePath+"/"+application.LoginAction, h.Login)

	mux.HandleFunc("GET /{$}", h.Home)
}
