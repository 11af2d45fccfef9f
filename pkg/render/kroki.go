package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultKrokiURL is the public Kroki instance.
const DefaultKrokiURL = "https://kroki.io"

// maxSVGBytes bounds how much of a response body is read.
const maxSVGBytes = 8 << 20

// KrokiRenderer renders Mermaid descriptions through a Kroki-compatible HTTP service.
type KrokiRenderer struct {
	baseURL    string
	httpClient *http.Client
}

// NewKrokiRenderer creates a renderer for the service at baseURL.
// A nil client uses http.DefaultClient.
func NewKrokiRenderer(baseURL string, client *http.Client) (*KrokiRenderer, error) {
	if baseURL == "" {
		baseURL = DefaultKrokiURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid kroki URL %q: must start with http:// or https://", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &KrokiRenderer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}, nil
}

// BaseURL returns the service URL.
func (r *KrokiRenderer) BaseURL() string {
	return r.baseURL
}

// Render posts description to /mermaid/svg and returns the resulting SVG.
func (r *KrokiRenderer) Render(ctx context.Context, description string) (*Visual, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("empty description")
	}

	endpoint := r.baseURL + "/mermaid/svg"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSVGBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kroki returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	svg := string(body)
	return &Visual{
		RenderID: uuid.NewString(),
		SVG:      svg,
		Nodes:    ExtractNodes(svg),
	}, nil
}

var _ Renderer = (*KrokiRenderer)(nil)
