package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/l3aro/jackal-flow/internal/config"
)

// RendererStatus represents the health status of the configured renderer.
type RendererStatus struct {
	Renderer string // "kroki" or "mmdc"
	Target   string // kroki URL or mmdc binary path
	Status   string // "ready" or "error"
	Error    string
}

// CacheStatus describes the persisted diagram cache.
type CacheStatus struct {
	Path   string
	Exists bool
	Size   int64
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Renderer       RendererStatus
	Cache          CacheStatus
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(ctx context.Context, cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
		Cache:          checkCache(cfg.CachePath),
	}

	switch cfg.Renderer {
	case config.RendererKroki:
		result.Renderer = checkKroki(ctx, cfg.KrokiURL)
	case config.RendererMmdc:
		result.Renderer = checkMmdc(cfg.MmdcPath)
	default:
		result.Renderer = RendererStatus{
			Renderer: string(cfg.Renderer),
			Status:   "error",
			Error:    fmt.Sprintf("unknown renderer: %s", cfg.Renderer),
		}
	}

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".jflow")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

// checkKroki pings the Kroki base URL to verify the endpoint is reachable.
func checkKroki(ctx context.Context, baseURL string) RendererStatus {
	status := RendererStatus{
		Renderer: string(config.RendererKroki),
		Target:   baseURL,
	}

	if baseURL == "" {
		status.Status = "error"
		status.Error = "kroki URL is not configured"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/health", nil)
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("invalid URL: %v", err)
		return status
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("cannot reach kroki at %s: %v", baseURL, err)
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		status.Status = "ready"
	} else {
		status.Status = "error"
		status.Error = fmt.Sprintf("kroki returned status %d", resp.StatusCode)
	}

	return status
}

// checkMmdc looks up the mermaid CLI binary.
func checkMmdc(path string) RendererStatus {
	status := RendererStatus{
		Renderer: string(config.RendererMmdc),
		Target:   path,
	}

	if path == "" {
		status.Status = "error"
		status.Error = "mmdc path is not configured"
		return status
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("mmdc not found: %v", err)
		return status
	}

	status.Target = resolved
	status.Status = "ready"
	return status
}

// checkCache reports whether a persisted diagram cache exists.
func checkCache(path string) CacheStatus {
	status := CacheStatus{Path: path}
	if path == "" {
		return status
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		status.Exists = true
		status.Size = info.Size()
	}
	return status
}
