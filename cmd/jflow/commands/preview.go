package commands

import (
	"encoding/json"
	"fmt"

	"github.com/l3aro/jackal-flow/pkg/livedata"
	"github.com/spf13/cobra"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <file|->",
	Short: "Summarize interpreter output as a tooltip would",
	Long:  `Finds the result array in captured interpreter output and prints the tooltip summary for it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		values, err := livedata.ParseOutput(output)
		if err != nil {
			return err
		}

		items, _ := cmd.Flags().GetInt("items")
		if items <= 0 {
			items = cfg.PreviewItems
		}
		summary := livedata.Preview(values, items)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), summary.String())
		return nil
	},
}

func init() {
	previewCmd.Flags().IntP("items", "n", 0, "Number of sample items (default from config)")
	previewCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
