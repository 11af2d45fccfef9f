package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/l3aro/jackal-flow/internal/server"
	"github.com/l3aro/jackal-flow/internal/watch"
	"github.com/l3aro/jackal-flow/pkg/flow"
	"github.com/l3aro/jackal-flow/pkg/livedata"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve diagrams and live-data tooltips over HTTP",
	Long: `Starts the HTTP server. Diagrams are pushed to websocket clients on
/api/stream together with live-data tooltips for the hovered node.

With --watch the given source file is re-rendered on every change.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ListenAddr
		}
		watchPath, _ := cmd.Flags().GetString("watch")
		direction, _ := cmd.Flags().GetString("direction")

		renderer, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		dc, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer persistCache(cfg, dc)

		registry := prometheus.NewRegistry()
		srv, err := server.New(server.Options{
			Renderer:     renderer,
			Extractor:    flow.NewExtractor(cfg.FlowOptions()),
			Direction:    directionFlag(direction),
			Timeout:      cfg.RenderTimeout,
			Cache:        dc,
			Store:        livedata.Global(),
			PreviewItems: cfg.PreviewItems,
			Registry:     registry,
			Logger:       logger,
			Debug:        verbose || cfg.Verbose,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.ListenAndServe(ctx, addr)
		})

		if watchPath != "" {
			w, err := watch.New(watchPath, func(ctx context.Context, content string) {
				srv.Session().Refresh(ctx, content)
			}, watch.Options{Debounce: cfg.WatchDebounce, Logger: logger})
			if err != nil {
				stop()
				_ = g.Wait()
				return err
			}
			g.Go(func() error {
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().String("watch", "", "Source file to re-render on change")
	serveCmd.Flags().StringP("direction", "d", "", "Graph direction (TD or LR)")
}
