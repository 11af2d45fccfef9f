// Package main implements the jackal-flow CLI (jflow).
// It extracts variable flow graphs from jackal source, renders them as
// Mermaid diagrams and serves them with live-data tooltips.
package main

import (
	"os"

	"github.com/l3aro/jackal-flow/cmd/jflow/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (" + buildTime + ")"
	}
	commands.RootCmd.SetVersionTemplate(`jflow version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
