package driven

import (
	"context"
	"errors"
	"io"
)

// ErrUnknownTemplate is returned by Renderer.Render for an unregistered name.
var ErrUnknownTemplate = errors.New("unknown template")

// Renderer renders a named template with a view model. Output is opaque HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, name string, data any) error
}
