package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/l3aro/jackal-flow/internal/config"
	"github.com/l3aro/jackal-flow/internal/healthcheck"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration and renderer",
	Long: `Checks the configuration and verifies that the configured diagram
renderer is reachable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		effectivePath := effectiveConfigPath()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		result, err := healthcheck.Check(ctx, cfg, effectivePath, effectivePath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(result)

		if result.Renderer.Status == "error" {
			return fmt.Errorf("health check failed: renderer is not available")
		}
		return nil
	},
}

// effectiveConfigPath returns the highest priority config file that exists.
func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	for _, p := range []string{config.ProjectConfigFilePath(), config.GlobalConfigFilePath()} {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Println("Using config: defaults (no config file found, run 'jflow init')")
	} else {
		fmt.Printf("Using config: %s (%s)\n", result.EffectivePath, result.EffectiveScope)
	}
	fmt.Println()

	displayRendererStatus(result.Renderer)

	fmt.Println("\nDiagram Cache:")
	fmt.Printf("  Path: %s\n", result.Cache.Path)
	if result.Cache.Exists {
		fmt.Printf("  Size: %d bytes\n", result.Cache.Size)
	} else {
		fmt.Println("  Size: empty")
	}
}

func displayRendererStatus(status healthcheck.RendererStatus) {
	fmt.Println("Renderer:")
	fmt.Printf("  Type: %s\n", status.Renderer)
	if status.Target != "" {
		fmt.Printf("  Target: %s\n", status.Target)
	}
	fmt.Printf("  Status: %s %s\n", formatStatusIcon(status.Status), status.Status)
	if status.Error != "" && status.Status == "error" {
		fmt.Printf("  Error: %s\n", status.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case "ready":
		return "✓"
	case "error":
		return "✗"
	default:
		return "?"
	}
}
