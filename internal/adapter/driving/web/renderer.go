package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/userpanel/internal/adapter/driving/debugbar"
	"github.com/ericfisherdev/userpanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/userpanel/internal/application"
	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Renderer = (*Renderer)(nil)

// Renderer renders templ components selected by template identifier.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes the component registered under name, populated from data.
// Unknown names return an error wrapping driven.ErrUnknownTemplate.
func (r *Renderer) Render(ctx context.Context, w io.Writer, name string, data any) error {
	component, err := componentFor(name, data)
	if err != nil {
		return err
	}
	return component.Render(ctx, w)
}

func componentFor(name string, data any) (templ.Component, error) {
	switch name {
	case application.TabTemplate:
		d, ok := data.(application.TabData)
		if !ok {
			return nil, unexpectedData(name, data)
		}
		return templates.UserPanelTab(toTabViewModel(d)), nil
	case application.PanelTemplate:
		d, ok := data.(application.PanelData)
		if !ok {
			return nil, unexpectedData(name, data)
		}
		return templates.UserPanel(toUserPanelViewModel(d)), nil
	case debugbar.BarTemplate:
		d, ok := data.(debugbar.BarData)
		if !ok {
			return nil, unexpectedData(name, data)
		}
		return templates.DebugBar(toDebugBarViewModel(d)), nil
	default:
		return nil, fmt.Errorf("%w: %q", driven.ErrUnknownTemplate, name)
	}
}

func unexpectedData(name string, data any) error {
	return fmt.Errorf("template %q: unexpected data type %T", name, data)
}
