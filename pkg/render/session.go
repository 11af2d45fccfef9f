package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l3aro/jackal-flow/internal/log"
	"github.com/l3aro/jackal-flow/pkg/flow"
	"golang.org/x/sync/singleflight"
)

// Status is the kind of result of one refresh.
type Status string

const (
	StatusDiagram      Status = "diagram"
	StatusEmpty        Status = "empty"
	StatusRenderFailed Status = "render_failed"
	StatusStale        Status = "stale"
)

// Outcome is the result of one refresh or description render.
type Outcome struct {
	Seq         uint64      `json:"seq"`
	Status      Status      `json:"status"`
	Message     string      `json:"message,omitempty"` // Placeholder text for non-diagram outcomes
	Description string      `json:"mermaid,omitempty"`
	Graph       *flow.Graph `json:"graph,omitempty"`
	Visual      *Visual     `json:"visual,omitempty"`
	Err         error       `json:"-"`
}

// Display receives every outcome that wins the display.
type Display interface {
	Show(o Outcome)
}

// DisplayFunc adapts a function to the Display interface.
type DisplayFunc func(o Outcome)

// Show calls f.
func (f DisplayFunc) Show(o Outcome) { f(o) }

// Cache stores rendered diagrams by description key.
type Cache interface {
	Get(key string) (*Visual, bool)
	Add(key string, v *Visual)
}

// Observer is notified of render activity.
type Observer interface {
	ObserveOutcome(status Status)
	ObserveRender(d time.Duration, err error)
	ObserveCache(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(Status)              {}
func (nopObserver) ObserveRender(time.Duration, error) {}
func (nopObserver) ObserveCache(bool)                  {}

// SessionOptions configures a Session.
type SessionOptions struct {
	Renderer  Renderer      // Required
	Extractor *flow.Extractor
	Direction string        // Mermaid graph direction, TD by default
	Timeout   time.Duration // Per render, 0 means no timeout
	Cache     Cache
	Display   Display
	Observer  Observer
	Logger    log.Logger
}

// Session extracts, renders and displays flow diagrams for one view.
//
// Each call is numbered. An outcome is displayed only if no newer call has
// been displayed already; older completions are reported as StatusStale.
type Session struct {
	renderer  Renderer
	extractor *flow.Extractor
	direction string
	timeout   time.Duration
	cache     Cache
	display   Display
	observer  Observer
	logger    log.Logger

	flight singleflight.Group
	seq    atomic.Uint64

	mu    sync.Mutex
	shown uint64
}

// NewSession creates a session.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}

	s := &Session{
		renderer:  opts.Renderer,
		extractor: opts.Extractor,
		direction: flow.NormalizeDirection(opts.Direction),
		timeout:   opts.Timeout,
		cache:     opts.Cache,
		display:   opts.Display,
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
	if s.extractor == nil {
		s.extractor = flow.NewExtractor(flow.DefaultOptions())
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s, nil
}

// Refresh extracts the flow graph of buffer, renders it and displays the result.
// An empty graph shows the empty placeholder without calling the renderer.
func (s *Session) Refresh(ctx context.Context, buffer string) Outcome {
	seq := s.seq.Add(1)

	g, err := s.extractor.Extract(buffer)
	if err != nil {
		// Extraction only fails with flow.ErrEmptyResult.
		return s.finish(Outcome{Seq: seq, Status: StatusEmpty, Message: PlaceholderEmpty, Err: err})
	}

	description := flow.Mermaid(g, s.direction)
	o := Outcome{Seq: seq, Description: description, Graph: g}

	v, err := s.render(ctx, seq, description)
	if err != nil {
		o.Status = StatusRenderFailed
		o.Message = PlaceholderRenderFailed
		o.Err = err
		return s.finish(o)
	}

	o.Status = StatusDiagram
	o.Visual = v
	return s.finish(o)
}

// RenderDescription renders a description produced elsewhere and displays it.
func (s *Session) RenderDescription(ctx context.Context, description string) Outcome {
	seq := s.seq.Add(1)
	o := Outcome{Seq: seq, Description: description}

	v, err := s.render(ctx, seq, description)
	if err != nil {
		o.Status = StatusRenderFailed
		o.Message = PlaceholderExternalFailed
		o.Err = err
		return s.finish(o)
	}

	o.Status = StatusDiagram
	o.Visual = v
	return s.finish(o)
}

// LastSeq returns the number of the most recent call.
func (s *Session) LastSeq() uint64 {
	return s.seq.Load()
}

// render returns a cached or freshly rendered visual. Any renderer failure,
// including a panic, is converted to ErrRenderFailed.
func (s *Session) render(ctx context.Context, seq uint64, description string) (*Visual, error) {
	key := DescriptionKey(description)

	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.observer.ObserveCache(true)
			return v, nil
		}
		s.observer.ObserveCache(false)
	}

	// The shared render outlives any single caller; each caller waits on its own ctx.
	ch := s.flight.DoChan(key, func() (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("renderer panic: %v", r)
			}
		}()

		rctx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		v, err := s.renderer.Render(rctx, description)
		s.observer.ObserveRender(time.Since(start), err)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errors.New("renderer returned no visual")
		}
		if s.cache != nil {
			s.cache.Add(key, v)
		}
		return v, nil
	})

	var (
		res    interface{}
		err    error
		shared bool
	)
	select {
	case r := <-ch:
		res, err, shared = r.Val, r.Err, r.Shared
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Error("render failed", "seq", seq, "shared", shared, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	s.logger.Debug("rendered diagram", "seq", seq, "shared", shared)
	return res.(*Visual), nil
}

// finish displays o unless a newer outcome has been displayed already.
func (s *Session) finish(o Outcome) Outcome {
	s.mu.Lock()
	if shown := s.shown; o.Seq <= shown {
		s.mu.Unlock()
		s.logger.Debug("discarding stale render", "seq", o.Seq, "shown", shown)
		s.observer.ObserveOutcome(StatusStale)
		return Outcome{Seq: o.Seq, Status: StatusStale, Err: ErrStale}
	}
	s.shown = o.Seq
	if s.display != nil {
		s.display.Show(o)
	}
	s.mu.Unlock()

	s.observer.ObserveOutcome(o.Status)
	return o
}

// DescriptionKey returns the cache key of a description.
func DescriptionKey(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}
