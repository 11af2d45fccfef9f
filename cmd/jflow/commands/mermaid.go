package commands

import (
	"errors"
	"fmt"

	"github.com/l3aro/jackal-flow/pkg/flow"
	"github.com/l3aro/jackal-flow/pkg/render"
	"github.com/spf13/cobra"
)

// mermaidCmd represents the mermaid command
var mermaidCmd = &cobra.Command{
	Use:   "mermaid <file|->",
	Short: "Print the Mermaid description of the flow graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		direction, _ := cmd.Flags().GetString("direction")

		graph, err := flow.NewExtractor(cfg.FlowOptions()).Extract(source)
		if errors.Is(err, flow.ErrEmptyResult) {
			fmt.Fprintln(cmd.ErrOrStderr(), render.PlaceholderEmpty)
			return nil
		}
		if err != nil {
			return fmt.Errorf("building flow graph: %w", err)
		}

		flow.WriteMermaid(cmd.OutOrStdout(), graph, directionFlag(direction))
		return nil
	},
}

func init() {
	mermaidCmd.Flags().StringP("direction", "d", "", "Graph direction (TD or LR)")
}
