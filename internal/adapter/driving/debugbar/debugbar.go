// Package debugbar implements a minimal development toolbar that injects
// request-scoped panels into HTML responses.
package debugbar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/ericfisherdev/userpanel/internal/domain/port/driven"
)

// BarTemplate is the Renderer template identifier for the bar itself.
const BarTemplate = "debugbar/bar"

// Panel is one debug-bar panel bound to a single request.
type Panel interface {
	ID() string
	RenderTab(ctx context.Context) (string, error)
	RenderPanel(ctx context.Context) (string, error)
}

// Factory builds a panel for the current request. w may be used to set
// cookies; the response body must not be written.
type Factory func(w http.ResponseWriter, r *http.Request) (Panel, error)

// RenderedPanel holds the pre-rendered markup of one panel.
type RenderedPanel struct {
	ID   string
	Tab  string
	Body string
}

// BarData is the view model handed to the bar template.
type BarData struct {
	Panels []RenderedPanel
}

type registration struct {
	id      string
	factory Factory
}

// Bar is a registry of panel factories. Panels render in registration order.
type Bar struct {
	mu       sync.RWMutex
	panels   []registration
	renderer driven.Renderer
	skip     []string
	logger   *slog.Logger
}

// NewBar creates an empty Bar. Requests whose path starts with one of
// skipPrefixes never receive the bar.
func NewBar(renderer driven.Renderer, logger *slog.Logger, skipPrefixes ...string) *Bar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bar{renderer: renderer, skip: skipPrefixes, logger: logger}
}

// Register adds or replaces the factory for id.
func (b *Bar) Register(id string, factory Factory) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.panels {
		if b.panels[i].id == id {
			b.panels[i].factory = factory
			return
		}
	}
	b.panels = append(b.panels, registration{id: id, factory: factory})
}

// Render builds every registered panel for r and renders the bar markup.
// A panel that fails to build or render is logged and left out.
func (b *Bar) Render(w http.ResponseWriter, r *http.Request) (string, error) {
	b.mu.RLock()
	panels := make([]registration, len(b.panels))
	copy(panels, b.panels)
	b.mu.RUnlock()

	ctx := r.Context()
	data := BarData{Panels: make([]RenderedPanel, 0, len(panels))}
	for _, reg := range panels {
		rendered, err := renderPanel(ctx, reg.factory, w, r)
		if err != nil {
			b.logger.Error("debug bar panel failed", "panel", reg.id, "error", err)
			continue
		}
		data.Panels = append(data.Panels, rendered)
	}

	var buf bytes.Buffer
	if err := b.renderer.Render(ctx, &buf, BarTemplate, data); err != nil {
		return "", fmt.Errorf("render debug bar: %w", err)
	}
	return buf.String(), nil
}

func renderPanel(ctx context.Context, factory Factory, w http.ResponseWriter, r *http.Request) (RenderedPanel, error) {
	p, err := factory(w, r)
	if err != nil {
		return RenderedPanel{}, fmt.Errorf("build panel: %w", err)
	}
	tab, err := p.RenderTab(ctx)
	if err != nil {
		return RenderedPanel{}, err
	}
	body, err := p.RenderPanel(ctx)
	if err != nil {
		return RenderedPanel{}, err
	}
	return RenderedPanel{ID: p.ID(), Tab: tab, Body: body}, nil
}

func (b *Bar) skipped(path string) bool {
	for _, prefix := range b.skip {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
