// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// TabViewModel holds the data for the user panel's debug-bar tab.
type TabViewModel struct {
	LoggedIn bool
	Username string
}

// OptionViewModel is one radio option of the quick-switch form.
type OptionViewModel struct {
	Value   string
	Label   string
	Checked bool
}

// FlashViewModel is a transient notice with its CSS class precomputed.
type FlashViewModel struct {
	Message string
	Class   string
}

// AttributeRowViewModel is one row of the identity data table.
type AttributeRowViewModel struct {
	Key   string
	Value string
	Class string
}

// UserPanelViewModel holds the data for the user panel body. It never
// carries passwords.
type UserPanelViewModel struct {
	LoggedIn   bool
	IdentityID string
	Roles      string
	Username   string
	NameColumn string
	Attributes []AttributeRowViewModel
	Options    []OptionViewModel
	Flashes    []FlashViewModel
	FormAction string
	CSRFToken  string
	NoteHTML   string
}

// PanelSlotViewModel is one rendered panel on the debug bar.
type PanelSlotViewModel struct {
	ID        string
	TabHTML   string
	PanelHTML string
}

// DebugBarViewModel holds every panel rendered for the current request.
type DebugBarViewModel struct {
	Panels []PanelSlotViewModel
}

// HomeViewModel holds the data for the demo host page.
type HomeViewModel struct {
	Title    string
	Greeting string
}
