package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/l3aro/jackal-flow/internal/watch"
	"github.com/l3aro/jackal-flow/pkg/render"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-render the diagram whenever the source changes",
	Long: `Watches a jackal source file and re-renders its flow diagram after every
change. The SVG is written to --output; placeholders are logged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		direction, _ := cmd.Flags().GetString("direction")

		display := render.DisplayFunc(func(o render.Outcome) {
			showOutcome(cmd.OutOrStdout(), o, output)
		})

		session, dc, err := newSession(directionFlag(direction), display)
		if err != nil {
			return err
		}
		defer persistCache(cfg, dc)

		w, err := watch.New(args[0], func(ctx context.Context, content string) {
			session.Refresh(ctx, content)
		}, watch.Options{Debounce: cfg.WatchDebounce, Logger: logger})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("watching", "path", w.Path(), "output", output)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// showOutcome writes a displayed diagram to output, or logs the placeholder.
func showOutcome(w io.Writer, o render.Outcome, output string) {
	if o.Status != render.StatusDiagram {
		logger.Warn(o.Message, "seq", o.Seq, "status", string(o.Status), "error", o.Err)
		return
	}
	if output == "" {
		fmt.Fprintln(w, o.Visual.SVG)
		return
	}
	if err := os.WriteFile(output, []byte(o.Visual.SVG), 0644); err != nil {
		logger.Error("failed to write diagram", "path", output, "error", err)
		return
	}
	logger.Info("diagram updated", "seq", o.Seq, "path", output, "nodes", len(o.Visual.Nodes))
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "Output SVG file (default stdout)")
	watchCmd.Flags().StringP("direction", "d", "", "Graph direction (TD or LR)")
}
