package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/l3aro/jackal-flow/internal/config"
	"github.com/l3aro/jackal-flow/internal/healthcheck"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize jflow configuration interactively",
	Long: `Guides you through setting up jflow configuration step by step.
Creates a config file with the renderer and source recognition settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.Context())
	},
}

func runInit(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conf := config.DefaultConfig()

	// === SECTION 1: Renderer ===
	var rendererChoice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Renderer - Turns Mermaid descriptions into SVG").
				Description("Select how diagrams are rendered").
				Options(
					huh.NewOption("Kroki (HTTP service)", string(config.RendererKroki)),
					huh.NewOption("Mermaid CLI (local mmdc)", string(config.RendererMmdc)),
				).
				Value(&rendererChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	conf.Renderer = config.RendererType(rendererChoice)

	if conf.Renderer == config.RendererKroki {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Kroki base URL").
					Placeholder(conf.KrokiURL).
					Value(&conf.KrokiURL),
			),
		)
	} else {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Path to the mmdc binary").
					Placeholder(conf.MmdcPath).
					Value(&conf.MmdcPath),
				huh.NewSelect[string]().
					Title("Mermaid theme").
					Options(huh.NewOptions("dark", "default", "forest", "neutral")...).
					Value(&conf.Theme),
			),
		)
	}
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Diagram ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Diagram direction").
				Options(
					huh.NewOption("Top down", "TD"),
					huh.NewOption("Left to right", "LR"),
				).
				Value(&conf.Direction),
			huh.NewInput().
				Title("Comment prefix").
				Description("Lines starting with this are ignored").
				Placeholder(conf.CommentPrefix).
				Value(&conf.CommentPrefix),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.jflow/config.yaml)", "global"),
					huh.NewOption("Project (./.jflow/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := conf.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Renderer: %s\n", conf.Renderer)
	if conf.Renderer == config.RendererKroki {
		fmt.Printf("Kroki URL: %s\n", conf.KrokiURL)
	} else {
		fmt.Printf("mmdc: %s (theme %s)\n", conf.MmdcPath, conf.Theme)
	}
	fmt.Printf("Direction: %s\n", conf.Direction)
	fmt.Printf("Comment prefix: %s\n", conf.CommentPrefix)
	fmt.Println("================================")

	if err := conf.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	// === SECTION 4: Health Check ===
	fmt.Println("\n=== Running Health Check ===")

	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}

	result, err := healthcheck.Check(ctx, loadedCfg, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Printf("\nConfig Scope: %s\n", result.SavedScope)
	if result.SavedScope == "global" {
		fmt.Printf("Config Path: %s\n", configPath)
	} else {
		absPath, _ := filepath.Abs(configPath)
		fmt.Printf("Config Path: %s\n", absPath)
	}

	fmt.Println()
	displayRendererStatus(result.Renderer)
	return nil
}
