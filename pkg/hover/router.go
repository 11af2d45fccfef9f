package hover

import "sync"

// Router is a Surface that dispatches pointer events by element id.
// Binding a new diagram should start from a fresh Router or call Reset.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]map[EventKind][]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]map[EventKind][]Handler)}
}

// On registers h for kind events on elementID.
func (r *Router) On(elementID string, kind EventKind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byKind, ok := r.handlers[elementID]
	if !ok {
		byKind = make(map[EventKind][]Handler)
		r.handlers[elementID] = byKind
	}
	byKind[kind] = append(byKind[kind], h)
}

// Dispatch calls the handlers registered for ev.ElementID and kind.
// It reports whether any handler ran.
func (r *Router) Dispatch(kind EventKind, ev PointerEvent) bool {
	r.mu.RLock()
	hs := append([]Handler(nil), r.handlers[ev.ElementID][kind]...)
	r.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
	return len(hs) > 0
}

// Reset drops every registered handler.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string]map[EventKind][]Handler)
}

var _ Surface = (*Router)(nil)
