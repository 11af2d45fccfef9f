package render

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKrokiRenderer(t *testing.T) {
	r, err := NewKrokiRenderer("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultKrokiURL, r.BaseURL())

	r, err = NewKrokiRenderer("http://localhost:8000/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", r.BaseURL())

	_, err = NewKrokiRenderer("localhost:8000", nil)
	assert.Error(t, err)
}

func TestKrokiRenderer_Render(t *testing.T) {
	var gotBody, gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = io.WriteString(w, sampleSVG)
	}))
	defer srv.Close()

	r, err := NewKrokiRenderer(srv.URL, srv.Client())
	require.NoError(t, err)

	v, err := r.Render(context.Background(), "graph TD\nv_a_0[\"let a\"]\n")
	require.NoError(t, err)

	assert.Equal(t, "/mermaid/svg", gotPath)
	assert.Equal(t, "text/plain", gotType)
	assert.Equal(t, "graph TD\nv_a_0[\"let a\"]\n", gotBody)
	assert.NotEmpty(t, v.RenderID)
	assert.Equal(t, sampleSVG, v.SVG)
	assert.Len(t, v.Nodes, 2)
}

func TestKrokiRenderer_RejectsDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Error 400: Syntax error in graph", http.StatusBadRequest)
	}))
	defer srv.Close()

	r, err := NewKrokiRenderer(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "graph TD\n???")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "Syntax error")
}

func TestKrokiRenderer_EmptyDescription(t *testing.T) {
	r, err := NewKrokiRenderer("http://127.0.0.1:1", nil)
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "  \n")
	assert.Error(t, err)
}

func TestCommandRenderer_MissingBinary(t *testing.T) {
	r := NewCommandRenderer(filepath.Join(t.TempDir(), "no-such-mmdc"), "")
	assert.Equal(t, filepath.Join(filepath.Dir(r.Path()), "no-such-mmdc"), r.Path())

	_, err := r.Render(context.Background(), "graph TD\na-->b\n")
	assert.Error(t, err)
}

func TestCommandRenderer_Defaults(t *testing.T) {
	r := NewCommandRenderer("", "")
	assert.Equal(t, DefaultMermaidCLI, r.Path())
	assert.Equal(t, "dark", r.theme)
}
