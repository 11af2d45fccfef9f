package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMermaidCLI is the Mermaid CLI binary name.
const DefaultMermaidCLI = "mmdc"

// CommandRenderer renders descriptions by running the Mermaid CLI.
type CommandRenderer struct {
	path  string
	theme string
}

// NewCommandRenderer creates a renderer that runs the binary at path.
func NewCommandRenderer(path, theme string) *CommandRenderer {
	if path == "" {
		path = DefaultMermaidCLI
	}
	if theme == "" {
		theme = "dark"
	}
	return &CommandRenderer{path: path, theme: theme}
}

// Path returns the configured binary path.
func (r *CommandRenderer) Path() string {
	return r.path
}

// Render writes description to a temporary file, runs mmdc on it and reads back the SVG.
func (r *CommandRenderer) Render(ctx context.Context, description string) (*Visual, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("empty description")
	}

	renderID := uuid.NewString()
	dir, err := os.MkdirTemp("", "jflow-"+renderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.mmd")
	out := filepath.Join(dir, "output.svg")
	if err := os.WriteFile(in, []byte(description), 0600); err != nil {
		return nil, fmt.Errorf("failed to write description: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.path, "-i", in, "-o", out, "-t", r.theme, "-q")
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s failed: %w", r.path, err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", r.path, err, msg)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered svg: %w", err)
	}

	svg := string(data)
	return &Visual{
		RenderID: renderID,
		SVG:      svg,
		Nodes:    ExtractNodes(svg),
	}, nil
}

var _ Renderer = (*CommandRenderer)(nil)
