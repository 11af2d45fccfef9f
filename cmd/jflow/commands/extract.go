package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/l3aro/jackal-flow/pkg/flow"
	"github.com/spf13/cobra"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Classify lines and print the flow graph",
	Long:  `Classifies every line of a jackal source file and prints the resulting flow graph of bindings and chained operations.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		extractor := flow.NewExtractor(cfg.FlowOptions())
		classes := extractor.Classify(source)
		graph, err := flow.Build(classes)
		if err != nil && !errors.Is(err, flow.ErrEmptyResult) {
			return fmt.Errorf("building flow graph: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		showLines, _ := cmd.Flags().GetBool("lines")

		out := cmd.OutOrStdout()
		if jsonOutput {
			result := struct {
				Lines []flow.Classification `json:"lines,omitempty"`
				Graph *flow.Graph           `json:"graph"`
			}{Graph: graph}
			if showLines {
				result.Lines = classes
			}
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if showLines {
			fmt.Fprintln(out, "=== Lines ===")
			for _, c := range classes {
				if c.Kind == flow.ClassIgnore {
					continue
				}
				fmt.Fprintf(out, "  %4d  %-12s %s\n", c.Line+1, c.Kind, c.Name)
			}
			fmt.Fprintln(out)
		}

		if graph == nil {
			fmt.Fprintln(out, "No variable flow found")
			return nil
		}

		fmt.Fprintf(out, "=== Nodes (%d) ===\n", len(graph.Nodes))
		for _, n := range graph.Nodes {
			fmt.Fprintf(out, "  %-24s %-10s %s (line %d)\n", n.ID, n.Kind, n.Label, n.SourceLine+1)
		}
		fmt.Fprintf(out, "\n=== Edges (%d) ===\n", len(graph.Edges))
		for _, e := range graph.Edges {
			fmt.Fprintf(out, "  %s -> %s (%s)\n", e.From, e.To, e.Style)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	extractCmd.Flags().BoolP("lines", "l", false, "Include per-line classification")
}
