// Package render turns flow graph descriptions into diagrams through an
// external renderer and coordinates which diagram is on display.
package render

import (
	"context"
	"errors"
)

// ErrRenderFailed is returned when the renderer rejects a description.
var ErrRenderFailed = errors.New("render failed")

// ErrStale is returned when a newer render was displayed first.
var ErrStale = errors.New("render superseded by a newer request")

// Renderer turns a diagram description into visual content.
type Renderer interface {
	// Render renders description. The returned Visual is owned by the caller.
	Render(ctx context.Context, description string) (*Visual, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, description string) (*Visual, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, description string) (*Visual, error) {
	return f(ctx, description)
}

// Visual is a rendered diagram.
type Visual struct {
	RenderID string         `json:"render_id" msgpack:"render_id"`
	SVG      string         `json:"svg" msgpack:"svg"`
	Nodes    []RenderedNode `json:"nodes" msgpack:"nodes"`
}

// RenderedNode ties a visual element back to the flow graph node it draws.
type RenderedNode struct {
	ElementID string `json:"element_id" msgpack:"element_id"` // id attribute in the SVG
	NodeID    string `json:"node_id" msgpack:"node_id"`       // flow.Node.ID
}

// Placeholder texts shown instead of a diagram.
const (
	PlaceholderEmpty          = "No variable flow found"
	PlaceholderRenderFailed   = "Diagram error"
	PlaceholderExternalFailed = "Failed to generate valid diagram logic"
)
