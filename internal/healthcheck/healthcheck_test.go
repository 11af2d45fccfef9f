package healthcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/jackal-flow/internal/config"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(context.Background(), nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckKrokiReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.KrokiURL = srv.URL + "/"
	cfg.CachePath = ""

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Renderer.Status != "ready" {
		t.Errorf("Renderer.Status = %q, want ready (error: %s)", result.Renderer.Status, result.Renderer.Error)
	}
}

func TestCheckKrokiBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.KrokiURL = srv.URL

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Renderer.Status != "error" {
		t.Errorf("Renderer.Status = %q, want error", result.Renderer.Status)
	}
}

func TestCheckMmdcMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Renderer = config.RendererMmdc
	cfg.MmdcPath = filepath.Join(t.TempDir(), "no-such-mmdc")

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Renderer.Status != "error" {
		t.Errorf("Renderer.Status = %q, want error", result.Renderer.Status)
	}
}

func TestCheckCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagrams.msgpack")
	if s := checkCache(path); s.Exists {
		t.Error("checkCache() reported a missing file as existing")
	}

	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	s := checkCache(path)
	if !s.Exists || s.Size != 3 {
		t.Errorf("checkCache() = %+v, want existing file of size 3", s)
	}
}

func TestScopeFromPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	globalPath := ""
	if home != "" {
		globalPath = filepath.Join(home, ".jflow", "config.yaml")
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty path", "", ""},
		{"project path", "/project/.jflow/config.yaml", "project"},
	}
	if globalPath != "" {
		tests = append(tests, struct {
			name     string
			path     string
			expected string
		}{"global path", globalPath, "global"})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scopeFromPath(tt.path); got != tt.expected {
				t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}
