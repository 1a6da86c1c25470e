package model

const (
	// GuestMarker is the form value representing "no authenticated user".
	GuestMarker = "__guest"

	// GuestLabel is the display label of the guest option.
	GuestLabel = "guest"
)

// Option is one radio option of the quick-switch login form. It never
// carries a password.
type Option struct {
	Value string
	Label string
}

// FlashKind classifies a transient notice.
type FlashKind string

const (
	FlashInfo  FlashKind = "info"
	FlashError FlashKind = "error"
)

// Flash is a transient, user-visible notice shown once after a redirect.
type Flash struct {
	Message string    `json:"m"`
	Kind    FlashKind `json:"k"`
}
