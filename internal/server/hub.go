package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/l3aro/jackal-flow/internal/log"
	"github.com/l3aro/jackal-flow/pkg/hover"
	"github.com/l3aro/jackal-flow/pkg/livedata"
	"github.com/l3aro/jackal-flow/pkg/render"
)

// Message types pushed to stream clients.
const (
	MessageSession = "session"
	MessageOutcome = "outcome"
	MessageTooltip = "tooltip"
	MessagePointer = "pointer"
)

// Message is one frame on the stream.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Outcome   *render.Outcome `json:"outcome,omitempty"`
	Tooltip   *hover.State    `json:"tooltip,omitempty"`
}

// PointerMessage is a pointer event sent by a stream client.
type PointerMessage struct {
	Type      string          `json:"type"`
	Event     hover.EventKind `json:"event"`
	ElementID string          `json:"element_id"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
}

const (
	sendBuffer   = 32
	writeTimeout = 10 * time.Second
)

// client is one stream connection with its own tooltip overlay.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan Message
	router  *hover.Router
	tooltip *hover.Tooltip
	binder  *hover.Binder
	logger  log.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, store *livedata.Store, previewItems int, logger log.Logger) *client {
	c := &client{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		router: hover.NewRouter(),
		logger: logger,
		closed: make(chan struct{}),
	}
	c.tooltip = hover.NewTooltip(func(s hover.State) {
		c.enqueue(Message{Type: MessageTooltip, Tooltip: &s})
	})
	c.binder = hover.NewBinder(c.tooltip, store, previewItems)
	return c
}

// deliver hides the tooltip, rebinds the hover handlers to the new diagram
// and queues the outcome. Placeholders leave no node bound.
func (c *client) deliver(o render.Outcome) {
	if c.tooltip.State().Visible {
		c.tooltip.Hide()
	}
	c.router.Reset()
	if o.Status == render.StatusDiagram && o.Visual != nil {
		c.binder.Bind(c.router, o.Visual.Nodes)
	}
	c.enqueue(Message{Type: MessageOutcome, Outcome: &o})
}

// enqueue never blocks. A client too slow to drain its buffer loses frames.
func (c *client) enqueue(m Message) {
	select {
	case <-c.closed:
	case c.send <- m:
	default:
		c.logger.Warn("dropping stream frame", "client", c.id, "type", m.Type)
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case m := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(m); err != nil {
				c.logger.Debug("stream write failed", "client", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

// readLoop dispatches pointer events until the connection fails.
func (c *client) readLoop() {
	for {
		var pm PointerMessage
		if err := c.conn.ReadJSON(&pm); err != nil {
			c.logger.Debug("stream client disconnected", "client", c.id, "error", err)
			return
		}
		if pm.Type != MessagePointer {
			continue
		}
		c.router.Dispatch(pm.Event, hover.PointerEvent{ElementID: pm.ElementID, X: pm.X, Y: pm.Y})
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// Hub fans displayed outcomes out to every stream client.
// It implements render.Display.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	last    *render.Outcome
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Show broadcasts o and remembers it for clients that connect later.
func (h *Hub) Show(o render.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &o
	for c := range h.clients {
		c.deliver(o)
	}
}

// Last returns the most recently displayed outcome.
func (h *Hub) Last() (render.Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return render.Outcome{}, false
	}
	return *h.last, true
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	c.enqueue(Message{Type: MessageSession, SessionID: c.id})
	if h.last != nil {
		c.deliver(*h.last)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

var _ render.Display = (*Hub)(nil)
