package web

import (
	"slices"
	"strings"

	"github.com/ericfisherdev/userpanel/internal/adapter/driving/debugbar"
	vm "github.com/ericfisherdev/userpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/domain/model"
)

func toTabViewModel(d application.TabData) vm.TabViewModel {
	return vm.TabViewModel{LoggedIn: d.LoggedIn, Username: d.Username}
}

// toUserPanelViewModel converts panel data into the template view model.
// Attribute rows are sorted by key; the configured name column is marked so
// the template can highlight it. The markdown note is rendered and sanitized.
func toUserPanelViewModel(d application.PanelData) vm.UserPanelViewModel {
	keys := make([]string, 0, len(d.Data))
	for k := range d.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([]vm.AttributeRowViewModel, 0, len(keys))
	for _, k := range keys {
		row := vm.AttributeRowViewModel{Key: k, Value: d.Data[k]}
		if k == d.NameColumn {
			row.Class = "userpanel-name-column"
		}
		rows = append(rows, row)
	}

	return vm.UserPanelViewModel{
		LoggedIn:   d.LoggedIn,
		IdentityID: d.IdentityID,
		Roles:      strings.Join(d.Roles, ", "),
		Username:   d.Username,
		NameColumn: d.NameColumn,
		Attributes: rows,
		Options:    toOptionViewModels(d.Options, d.Selected),
		Flashes:    toFlashViewModels(d.Flashes),
		FormAction: d.FormAction,
		CSRFToken:  d.CSRFToken,
		NoteHTML:   RenderMarkdown(d.Note),
	}
}

func toOptionViewModels(options []model.Option, selected string) []vm.OptionViewModel {
	out := make([]vm.OptionViewModel, 0, len(options))
	for _, o := range options {
		out = append(out, vm.OptionViewModel{
			Value:   o.Value,
			Label:   o.Label,
			Checked: o.Value == selected,
		})
	}
	return out
}

func toFlashViewModels(flashes []model.Flash) []vm.FlashViewModel {
	out := make([]vm.FlashViewModel, 0, len(flashes))
	for _, f := range flashes {
		kind := f.Kind
		if kind == "" {
			kind = model.FlashInfo
		}
		out = append(out, vm.FlashViewModel{
			Message: f.Message,
			Class:   "userpanel-flash userpanel-flash-" + string(kind),
		})
	}
	return out
}

func toDebugBarViewModel(d debugbar.BarData) vm.DebugBarViewModel {
	slots := make([]vm.PanelSlotViewModel, 0, len(d.Panels))
	for _, p := range d.Panels {
		slots = append(slots, vm.PanelSlotViewModel{ID: p.ID, TabHTML: p.Tab, PanelHTML: p.Body})
	}
	return vm.DebugBarViewModel{Panels: slots}
}
