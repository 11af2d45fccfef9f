package commands

import (
	"fmt"
	"os"

	"github.com/l3aro/jackal-flow/internal/config"
	"github.com/l3aro/jackal-flow/internal/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	jsonLogs   bool

	cfg    *config.Config
	logger log.Logger = log.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "jflow",
	Short: "jackal-flow - Variable flow diagrams for jackal source",
	Long: `jackal-flow reads jackal source line by line and draws how values flow
from bindings into chained operations.

Commands:
  extract     Classify lines and print the flow graph
  mermaid     Print the Mermaid description of the flow graph
  render      Render the flow diagram to SVG
  watch       Re-render the diagram whenever the source changes
  serve       Serve diagrams and live-data tooltips over HTTP
  preview     Summarize interpreter output as a tooltip would
  init        Create a configuration file interactively
  doctor      Check configuration and renderer health

Use "jflow [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config, it must not require one
		if cmd.Name() == "init" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger = newLogger(cfg)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func newLogger(c *config.Config) log.Logger {
	level := log.ParseLevel(c.LogLevel)
	if verbose || c.Verbose {
		level = log.DebugLevel
	}
	return log.New(log.LoggerConfig{
		Level:      level,
		JSONOutput: jsonLogs || c.LogJSON,
		Output:     os.Stderr,
	})
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Verbose logging")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Log as JSON")

	RootCmd.AddCommand(extractCmd)
	RootCmd.AddCommand(mermaidCmd)
	RootCmd.AddCommand(renderCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(previewCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(doctorCmd)
}
