package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/l3aro/jackal-flow/pkg/cache"
	"github.com/l3aro/jackal-flow/pkg/flow"
	"github.com/l3aro/jackal-flow/pkg/render"
	"github.com/spf13/cobra"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render the flow diagram to SVG",
	Long: `Extracts the flow graph, renders it with the configured renderer and
writes the SVG to --output (standard output by default).

With --mermaid the input is taken as a ready Mermaid description.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		direction, _ := cmd.Flags().GetString("direction")
		isMermaid, _ := cmd.Flags().GetBool("mermaid")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		session, dc, err := newSession(directionFlag(direction), nil)
		if err != nil {
			return err
		}
		defer persistCache(cfg, dc)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var o render.Outcome
		if isMermaid {
			o = session.RenderDescription(ctx, source)
		} else {
			o = session.Refresh(ctx, source)
		}

		if jsonOutput {
			data, err := json.MarshalIndent(o, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return o.Err
		}

		if o.Status != render.StatusDiagram {
			fmt.Fprintln(cmd.ErrOrStderr(), o.Message)
			return o.Err
		}

		if output == "" || output == "-" {
			fmt.Fprintln(cmd.OutOrStdout(), o.Visual.SVG)
			return nil
		}
		if err := os.WriteFile(output, []byte(o.Visual.SVG), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		logger.Info("diagram written", "path", output, "nodes", len(o.Visual.Nodes), "render_id", o.Visual.RenderID)
		return nil
	},
}

// newSession creates a render session from the loaded config.
// The returned cache must be persisted by the caller.
func newSession(direction string, display render.Display) (*render.Session, *cache.DiagramCache, error) {
	renderer, err := newRenderer(cfg)
	if err != nil {
		return nil, nil, err
	}
	dc, err := openCache(cfg)
	if err != nil {
		return nil, nil, err
	}

	session, err := render.NewSession(render.SessionOptions{
		Renderer:  renderer,
		Extractor: flow.NewExtractor(cfg.FlowOptions()),
		Direction: direction,
		Timeout:   cfg.RenderTimeout,
		Cache:     dc,
		Display:   display,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return session, dc, nil
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "Output SVG file (default stdout)")
	renderCmd.Flags().StringP("direction", "d", "", "Graph direction (TD or LR)")
	renderCmd.Flags().Bool("mermaid", false, "Input is a Mermaid description")
	renderCmd.Flags().BoolP("json", "j", false, "Output the outcome as JSON")
}
