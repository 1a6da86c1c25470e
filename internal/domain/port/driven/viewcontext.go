package driven

import "github.com/ericfisherdev/userpanel/internal/domain/model"

// ViewContext is the active request/response view a panel is attached to.
// It supplies the "reload current view" and flash message primitives.
type ViewContext interface {
	// Reload redirects the client back to the current view.
	Reload()

	// Flash queues a transient notice shown after the next reload.
	Flash(message string, kind model.FlashKind)

	// Flashes returns and consumes the notices queued by the previous request.
	Flashes() []model.Flash

	// ActionURL returns the URL a panel form posts to for the named action.
	ActionURL(action string) string

	// CSRFToken returns the token forms must echo back.
	CSRFToken() string
}
