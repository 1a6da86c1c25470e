package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/userpanel/internal/domain/model"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// BasePath prefixes every debug-bar route.
const BasePath = "/_debugbar"

const flashCookieName = "userpanel_flash"

// Compile-time interface satisfaction check.
var _ driven.ViewContext = (*View)(nil)

// View is the request-scoped ViewContext. Flash messages survive exactly one
// redirect in a short-lived cookie.
type View struct {
	w http.ResponseWriter
	r *http.Request

	pending  []model.Flash
	flashes  []model.Flash
	read     bool
	csrf     string
	reloaded bool
	secure   bool
}

// NewView binds a View to one request/response pair. secure marks the flash
// and CSRF cookies it sets as HTTPS-only.
func NewView(w http.ResponseWriter, r *http.Request, secure bool) *View {
	return &View{w: w, r: r, secure: secure}
}

// Reload redirects the browser back to the page it came from. Referers on
// another host or under BasePath fall back to "/".
func (v *View) Reload() {
	v.reloaded = true
	http.Redirect(v.w, v.r, reloadTarget(v.r), http.StatusSeeOther)
}

// Reloaded reports whether Reload was called.
func (v *View) Reloaded() bool {
	return v.reloaded
}

// Flash queues a message for the next rendered page. It must be called before
// Reload since it sets a cookie.
func (v *View) Flash(message string, kind model.FlashKind) {
	v.pending = append(v.pending, model.Flash{Message: message, Kind: kind})
	http.SetCookie(v.w, &http.Cookie{
		Name:     flashCookieName,
		Value:    encodeFlashes(v.pending),
		Path:     "/",
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Flashes returns messages queued by the previous request and clears them.
func (v *View) Flashes() []model.Flash {
	if v.read {
		return v.flashes
	}
	v.read = true

	cookie, err := v.r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	v.flashes = decodeFlashes(cookie.Value)
	http.SetCookie(v.w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return v.flashes
}

// ActionURL maps a panel action to its route under BasePath.
func (v *View) ActionURL(action string) string {
	return BasePath + "/" + strings.TrimPrefix(action, "/")
}

// CSRFToken returns the token to embed in forms, issuing one if needed.
func (v *View) CSRFToken() string {
	if v.csrf == "" {
		v.csrf = csrfToken(v.w, v.r, v.secure)
	}
	return v.csrf
}

func reloadTarget(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}
	if u.Host != "" && u.Host != r.Host {
		return "/"
	}
	if u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, BasePath+"/") {
		return "/"
	}
	return u.RequestURI()
}

func encodeFlashes(flashes []model.Flash) string {
	raw, err := json.Marshal(flashes)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeFlashes ignores malformed cookies.
func decodeFlashes(value string) []model.Flash {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []model.Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
