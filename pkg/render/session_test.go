package render

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/l3aro/jackal-flow/internal/log"
	"github.com/l3aro/jackal-flow/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDisplay struct {
	mu    sync.Mutex
	shown []Outcome
}

func (d *recordingDisplay) Show(o Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, o)
}

func (d *recordingDisplay) all() []Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Outcome(nil), d.shown...)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]*Visual
}

func (c *mapCache) Get(key string) (*Visual, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Add(key string, v *Visual) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = v
}

func echoRenderer(calls *atomic.Int32) Renderer {
	return RendererFunc(func(ctx context.Context, description string) (*Visual, error) {
		if calls != nil {
			calls.Add(1)
		}
		return &Visual{RenderID: "r", SVG: "<svg>" + description + "</svg>"}, nil
	})
}

func newTestSession(t *testing.T, r Renderer, d Display, c Cache) *Session {
	t.Helper()
	s, err := NewSession(SessionOptions{
		Renderer: r,
		Display:  d,
		Cache:    c,
		Logger:   log.Discard(),
	})
	require.NoError(t, err)
	return s
}

func TestNewSession_RequiresRenderer(t *testing.T) {
	_, err := NewSession(SessionOptions{})
	assert.Error(t, err)
}

func TestSession_RefreshDiagram(t *testing.T) {
	var calls atomic.Int32
	display := &recordingDisplay{}
	s := newTestSession(t, echoRenderer(&calls), display, nil)

	o := s.Refresh(context.Background(), "let a = 1\nlet b = a + 1\n")

	assert.Equal(t, StatusDiagram, o.Status)
	assert.Equal(t, uint64(1), o.Seq)
	require.NotNil(t, o.Graph)
	assert.Len(t, o.Graph.Nodes, 2)
	assert.Contains(t, o.Description, "v_a_0 --> v_b_1")
	require.NotNil(t, o.Visual)
	assert.Contains(t, o.Visual.SVG, "graph TD")
	assert.Equal(t, int32(1), calls.Load())

	shown := display.all()
	require.Len(t, shown, 1)
	assert.Equal(t, StatusDiagram, shown[0].Status)
}

func TestSession_EmptyDoesNotRender(t *testing.T) {
	var calls atomic.Int32
	display := &recordingDisplay{}
	s := newTestSession(t, echoRenderer(&calls), display, nil)

	o := s.Refresh(context.Background(), "// nothing here\n\n")

	assert.Equal(t, StatusEmpty, o.Status)
	assert.Equal(t, PlaceholderEmpty, o.Message)
	assert.ErrorIs(t, o.Err, flow.ErrEmptyResult)
	assert.Equal(t, int32(0), calls.Load())
	require.Len(t, display.all(), 1)
}

func TestSession_RenderFailed(t *testing.T) {
	display := &recordingDisplay{}
	failing := RendererFunc(func(ctx context.Context, description string) (*Visual, error) {
		return nil, errors.New("parse error on line 2")
	})
	s := newTestSession(t, failing, display, nil)

	o := s.Refresh(context.Background(), "let a = 1")

	assert.Equal(t, StatusRenderFailed, o.Status)
	assert.Equal(t, PlaceholderRenderFailed, o.Message)
	assert.ErrorIs(t, o.Err, ErrRenderFailed)
	assert.False(t, errors.Is(o.Err, flow.ErrEmptyResult))
	require.NotNil(t, o.Graph)
}

func TestSession_RendererPanicBecomesRenderFailed(t *testing.T) {
	panicking := RendererFunc(func(ctx context.Context, description string) (*Visual, error) {
		panic("renderer exploded")
	})
	s := newTestSession(t, panicking, nil, nil)

	var o Outcome
	assert.NotPanics(t, func() {
		o = s.Refresh(context.Background(), "let a = 1")
	})
	assert.ErrorIs(t, o.Err, ErrRenderFailed)
}

func TestSession_NilVisualIsFailure(t *testing.T) {
	s := newTestSession(t, RendererFunc(func(ctx context.Context, d string) (*Visual, error) {
		return nil, nil
	}), nil, nil)

	o := s.Refresh(context.Background(), "let a = 1")
	assert.Equal(t, StatusRenderFailed, o.Status)
}

func TestSession_RenderDescription(t *testing.T) {
	display := &recordingDisplay{}
	s := newTestSession(t, echoRenderer(nil), display, nil)

	o := s.RenderDescription(context.Background(), "graph LR\na --> b\n")
	assert.Equal(t, StatusDiagram, o.Status)
	assert.Nil(t, o.Graph)

	failing := newTestSession(t, RendererFunc(func(ctx context.Context, d string) (*Visual, error) {
		return nil, errors.New("bad")
	}), nil, nil)
	o = failing.RenderDescription(context.Background(), "not mermaid")
	assert.Equal(t, StatusRenderFailed, o.Status)
	assert.Equal(t, PlaceholderExternalFailed, o.Message)
}

func TestSession_UsesCache(t *testing.T) {
	var calls atomic.Int32
	c := &mapCache{m: make(map[string]*Visual)}
	s := newTestSession(t, echoRenderer(&calls), nil, c)

	first := s.Refresh(context.Background(), "let a = 1")
	second := s.Refresh(context.Background(), "let a = 1")

	assert.Equal(t, StatusDiagram, second.Status)
	assert.Same(t, first.Visual, second.Visual)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSession_DiscardsOutOfOrderRender(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})

	r := RendererFunc(func(ctx context.Context, description string) (*Visual, error) {
		if strings.Contains(description, "v_slow_0") {
			close(slowStarted)
			<-releaseSlow
		}
		return &Visual{SVG: description}, nil
	})

	display := &recordingDisplay{}
	s := newTestSession(t, r, display, nil)

	slowDone := make(chan Outcome)
	go func() {
		slowDone <- s.Refresh(context.Background(), "let slow = 1")
	}()
	<-slowStarted

	fast := s.Refresh(context.Background(), "let fast = 1")
	assert.Equal(t, StatusDiagram, fast.Status)
	assert.Equal(t, uint64(2), fast.Seq)

	close(releaseSlow)
	slow := <-slowDone

	assert.Equal(t, StatusStale, slow.Status)
	assert.ErrorIs(t, slow.Err, ErrStale)
	assert.Equal(t, uint64(1), slow.Seq)

	shown := display.all()
	require.Len(t, shown, 1)
	assert.Equal(t, uint64(2), shown[0].Seq)
}

func blockingRenderer(calls *atomic.Int32, started chan<- struct{}, release <-chan struct{}) Renderer {
	return RendererFunc(func(ctx context.Context, description string) (*Visual, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return &Visual{RenderID: "shared", SVG: description}, nil
	})
}

// waitForCaller blocks until n calls have been numbered and gives the last
// one time to join the in-flight render.
func waitForCaller(t *testing.T, s *Session, n uint64) {
	t.Helper()
	require.Eventually(t, func() bool { return s.LastSeq() >= n }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
}

func TestSession_DeduplicatesConcurrentRenders(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	display := &recordingDisplay{}
	s := newTestSession(t, blockingRenderer(&calls, started, release), display, nil)

	first := make(chan Outcome, 1)
	go func() { first <- s.Refresh(context.Background(), "let a = 1\na.sum()") }()
	<-started

	second := make(chan Outcome, 1)
	go func() { second <- s.Refresh(context.Background(), "let a = 1\na.sum()") }()
	waitForCaller(t, s, 2)

	close(release)
	a, b := <-first, <-second

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StatusDiagram, b.Status)
	require.NotNil(t, b.Visual)
	if a.Status == StatusDiagram {
		assert.Same(t, a.Visual, b.Visual)
	} else {
		assert.Equal(t, StatusStale, a.Status)
	}
	for _, o := range display.all() {
		assert.Same(t, b.Visual, o.Visual)
	}
}

func TestSession_CancelledCallerDoesNotFailSharedRender(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	display := &recordingDisplay{}
	s := newTestSession(t, blockingRenderer(&calls, started, release), display, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan Outcome, 1)
	go func() { first <- s.Refresh(ctx, "let a = 1") }()
	<-started

	second := make(chan Outcome, 1)
	go func() { second <- s.Refresh(context.Background(), "let a = 1") }()
	waitForCaller(t, s, 2)

	cancel()
	a := <-first
	assert.Equal(t, StatusRenderFailed, a.Status)
	assert.ErrorIs(t, a.Err, ErrRenderFailed)

	close(release)
	b := <-second
	assert.Equal(t, StatusDiagram, b.Status)
	assert.Equal(t, uint64(2), b.Seq)
	require.NotNil(t, b.Visual)
	assert.Equal(t, "shared", b.Visual.RenderID)
	assert.Equal(t, int32(1), calls.Load())

	shown := display.all()
	require.Len(t, shown, 2)
	assert.Equal(t, StatusDiagram, shown[1].Status)
}

func TestSession_Timeout(t *testing.T) {
	r := RendererFunc(func(ctx context.Context, description string) (*Visual, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s, err := NewSession(SessionOptions{Renderer: r, Timeout: 10 * time.Millisecond, Logger: log.Discard()})
	require.NoError(t, err)

	o := s.Refresh(context.Background(), "let a = 1")
	assert.Equal(t, StatusRenderFailed, o.Status)
	assert.ErrorIs(t, o.Err, ErrRenderFailed)
}

func TestSession_Direction(t *testing.T) {
	s, err := NewSession(SessionOptions{Renderer: echoRenderer(nil), Direction: "LR", Logger: log.Discard()})
	require.NoError(t, err)

	o := s.Refresh(context.Background(), "let a = 1")
	assert.Contains(t, o.Description, "graph LR\n")
}

func TestDescriptionKey(t *testing.T) {
	assert.Equal(t, DescriptionKey("graph TD\n"), DescriptionKey("graph TD\n"))
	assert.NotEqual(t, DescriptionKey("graph TD\n"), DescriptionKey("graph LR\n"))
	assert.Len(t, DescriptionKey("x"), 64)
}

