// Package server serves flow diagrams over HTTP and pushes them to
// websocket clients together with live-data tooltips.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/l3aro/jackal-flow/internal/log"
	"github.com/l3aro/jackal-flow/internal/metrics"
	"github.com/l3aro/jackal-flow/pkg/flow"
	"github.com/l3aro/jackal-flow/pkg/livedata"
	"github.com/l3aro/jackal-flow/pkg/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures a Server.
type Options struct {
	Renderer     render.Renderer // Required
	Extractor    *flow.Extractor
	Direction    string
	Timeout      time.Duration
	Cache        render.Cache
	Store        *livedata.Store // Defaults to livedata.Global()
	PreviewItems int
	Registry     *prometheus.Registry // Defaults to a fresh registry
	Logger       log.Logger
	Debug        bool
}

// Server is the jflow HTTP server.
type Server struct {
	session      *render.Session
	hub          *Hub
	store        *livedata.Store
	previewItems int
	registry     *prometheus.Registry
	logger       log.Logger
	engine       *gin.Engine
	upgrader     websocket.Upgrader
}

// FlowRequest is the body of POST /api/flow.
type FlowRequest struct {
	Code string `json:"code"`
}

// DiagramRequest is the body of POST /api/diagram.
type DiagramRequest struct {
	Mermaid string `json:"mermaid" binding:"required"`
}

// LiveDataRequest is the body of POST /api/live-data.
type LiveDataRequest struct {
	Output string `json:"output"`
}

// New creates a server and its render session.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		opts.Store = livedata.Global()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.PreviewItems <= 0 {
		opts.PreviewItems = livedata.DefaultPreviewItems
	}

	hub := NewHub()
	session, err := render.NewSession(render.SessionOptions{
		Renderer:  opts.Renderer,
		Extractor: opts.Extractor,
		Direction: opts.Direction,
		Timeout:   opts.Timeout,
		Cache:     opts.Cache,
		Display:   hub,
		Observer:  metrics.New(opts.Registry),
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating render session: %w", err)
	}

	s := &Server{
		session:      session,
		hub:          hub,
		store:        opts.Store,
		previewItems: opts.PreviewItems,
		registry:     opts.Registry,
		logger:       opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.engine = s.routes(opts.Debug)
	return s, nil
}

// Session returns the render session shared by all routes.
func (s *Server) Session() *render.Session {
	return s.session
}

// Hub returns the stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if debug {
		router.Use(gin.Logger())
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": s.hub.Len()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.POST("/flow", s.handleFlow)
	api.POST("/diagram", s.handleDiagram)
	api.POST("/live-data", s.handleSetLiveData)
	api.GET("/live-data", s.handleGetLiveData)
	api.DELETE("/live-data", s.handleClearLiveData)
	api.GET("/stream", s.handleStream)

	return router
}

func (s *Server) handleFlow(c *gin.Context) {
	var req FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.Refresh(c.Request.Context(), req.Code))
}

func (s *Server) handleDiagram(c *gin.Context) {
	var req DiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.RenderDescription(c.Request.Context(), req.Mermaid))
}

func (s *Server) handleSetLiveData(c *gin.Context) {
	var req LiveDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	values, err := livedata.ParseOutput(req.Output)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, livedata.ErrNoData) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	s.store.Set(values)
	s.logger.Debug("live data updated", "size", len(values))
	c.JSON(http.StatusOK, livedata.Preview(values, s.previewItems))
}

func (s *Server) handleGetLiveData(c *gin.Context) {
	snap, ok := s.store.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": livedata.ErrNoData.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap,
		"preview":  livedata.Preview(snap.Values, s.previewItems),
	})
}

func (s *Server) handleClearLiveData(c *gin.Context) {
	s.store.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade the websocket", "error", err)
		return
	}

	cl := newClient(conn, s.store, s.previewItems, s.logger)
	s.logger.Info("stream client connected", "client", cl.id)

	go cl.writeLoop()
	s.hub.register(cl)
	defer s.hub.unregister(cl)

	cl.readLoop()
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
