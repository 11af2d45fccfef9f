package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/l3aro/jackal-flow/internal/config"
	"github.com/l3aro/jackal-flow/pkg/cache"
	"github.com/l3aro/jackal-flow/pkg/render"
)

// newRenderer builds the renderer selected in c.
func newRenderer(c *config.Config) (render.Renderer, error) {
	switch c.Renderer {
	case config.RendererKroki:
		r, err := render.NewKrokiRenderer(c.KrokiURL, &http.Client{Timeout: c.RenderTimeout})
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.RendererMmdc:
		return render.NewCommandRenderer(c.MmdcPath, c.Theme), nil
	default:
		return nil, fmt.Errorf("unknown renderer: %s", c.Renderer)
	}
}

// openCache creates the diagram cache and loads the persisted snapshot, if any.
func openCache(c *config.Config) (*cache.DiagramCache, error) {
	dc, err := cache.New(cache.Options{MaxEntries: c.CacheSize})
	if err != nil {
		return nil, fmt.Errorf("creating diagram cache: %w", err)
	}
	if c.CachePath == "" {
		return dc, nil
	}
	if err := cache.LoadFromFile(dc, c.CachePath); err != nil {
		// A corrupt or outdated snapshot only costs re-rendering.
		logger.Warn("ignoring diagram cache", "path", c.CachePath, "error", err)
		dc.Purge()
	}
	return dc, nil
}

// persistCache writes the diagram cache back to disk.
func persistCache(c *config.Config, dc *cache.DiagramCache) {
	if c.CachePath == "" || dc == nil {
		return
	}
	if err := cache.PersistToFile(dc, c.CachePath); err != nil {
		logger.Warn("failed to persist diagram cache", "path", c.CachePath, "error", err)
		return
	}
	stats := dc.Stats()
	logger.Debug("diagram cache persisted", "path", c.CachePath, "entries", dc.Len(), "hits", stats.Hits, "misses", stats.Misses)
}

// readSource reads a file, or standard input when path is "-".
func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, expected a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

// directionFlag returns the --direction flag if set, else the configured direction.
func directionFlag(dir string) string {
	if dir != "" {
		return dir
	}
	return cfg.Direction
}
