// Package hover attaches live-data tooltips to rendered flow diagram nodes.
package hover

import (
	"sync"

	"github.com/l3aro/jackal-flow/pkg/livedata"
	"github.com/l3aro/jackal-flow/pkg/render"
)

// EventKind is a pointer event on a rendered node.
type EventKind string

const (
	EventEnter EventKind = "enter"
	EventMove  EventKind = "move"
	EventLeave EventKind = "leave"
)

// PointerEvent carries the page coordinates of the pointer.
type PointerEvent struct {
	ElementID string
	X, Y      int
}

// Handler reacts to a pointer event.
type Handler func(ev PointerEvent)

// Surface is where rendered nodes live and pointer events originate.
type Surface interface {
	On(elementID string, kind EventKind, h Handler)
}

// Offset is the distance between the pointer and the tooltip corner.
const Offset = 15

// TooltipTitle heads every tooltip.
const TooltipTitle = "Live Data Preview"

// State is a snapshot of the tooltip overlay.
type State struct {
	Visible bool   `json:"visible"`
	NodeID  string `json:"node_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Body    string `json:"body,omitempty"`
	Left    int    `json:"left"`
	Top     int    `json:"top"`
}

// Tooltip is the single overlay shared by all nodes of a view.
// It shows content for at most one node at a time.
type Tooltip struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewTooltip creates a hidden tooltip. onChange, if set, is called with every new state.
func NewTooltip(onChange func(State)) *Tooltip {
	return &Tooltip{onChange: onChange}
}

// Show makes the tooltip visible for nodeID with the given body.
func (t *Tooltip) Show(nodeID, body string) {
	t.update(func(s *State) {
		s.Visible = true
		s.NodeID = nodeID
		s.Title = TooltipTitle
		s.Body = body
	})
}

// MoveTo positions the tooltip next to the pointer.
func (t *Tooltip) MoveTo(x, y int) {
	t.update(func(s *State) {
		s.Left = x + Offset
		s.Top = y + Offset
	})
}

// Hide hides the tooltip.
func (t *Tooltip) Hide() {
	t.update(func(s *State) {
		s.Visible = false
		s.NodeID = ""
		s.Title = ""
		s.Body = ""
	})
}

// State returns the current overlay state.
func (t *Tooltip) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tooltip) update(fn func(s *State)) {
	t.mu.Lock()
	fn(&t.state)
	s := t.state
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(s)
	}
}

// Binder wires tooltip handlers onto rendered nodes.
type Binder struct {
	tooltip      *Tooltip
	store        *livedata.Store
	previewItems int
}

// NewBinder creates a binder reading live data from store.
// A nil store uses the process-wide store.
func NewBinder(tooltip *Tooltip, store *livedata.Store, previewItems int) *Binder {
	if store == nil {
		store = livedata.Global()
	}
	return &Binder{tooltip: tooltip, store: store, previewItems: previewItems}
}

// Bind registers enter, move and leave handlers for every node.
func (b *Binder) Bind(surface Surface, nodes []render.RenderedNode) {
	for _, n := range nodes {
		nodeID := n.NodeID
		surface.On(n.ElementID, EventEnter, func(ev PointerEvent) {
			b.enter(nodeID, ev)
		})
		surface.On(n.ElementID, EventMove, func(ev PointerEvent) {
			b.tooltip.MoveTo(ev.X, ev.Y)
		})
		surface.On(n.ElementID, EventLeave, func(PointerEvent) {
			b.tooltip.Hide()
		})
	}
}

// Content returns the tooltip body for the current live data.
func (b *Binder) Content() (string, bool) {
	snap, ok := b.store.Latest()
	if !ok {
		return "", false
	}
	return livedata.Preview(snap.Values, b.previewItems).String(), true
}

func (b *Binder) enter(nodeID string, ev PointerEvent) {
	body, ok := b.Content()
	if !ok {
		return
	}
	b.tooltip.Show(nodeID, body)
	b.tooltip.MoveTo(ev.X, ev.Y)
}
