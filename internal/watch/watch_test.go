package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l3aro/jackal-flow/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitContent(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for content")
		return ""
	}
}

func TestWatcher_DeliversInitialAndChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.jackal")
	require.NoError(t, os.WriteFile(path, []byte("let a = 1"), 0644))

	got := make(chan string, 16)
	w, err := New(path, func(_ context.Context, content string) {
		got <- content
	}, Options{Debounce: 20 * time.Millisecond, Logger: log.Discard()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	assert.Equal(t, "let a = 1", waitContent(t, got))

	require.NoError(t, os.WriteFile(path, []byte("let b = 2"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c == "let b = 2" {
				w.Stop()
				select {
				case err := <-errCh:
					assert.NoError(t, err)
				case <-time.After(5 * time.Second):
					t.Fatal("Run did not return after Stop")
				}
				return
			}
		case <-deadline:
			t.Fatal("change was not delivered")
		}
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.jackal")
	require.NoError(t, os.WriteFile(path, []byte("let a = 1"), 0644))

	got := make(chan string, 16)
	w, err := New(path, func(_ context.Context, content string) {
		got <- content
	}, Options{Debounce: 10 * time.Millisecond, Logger: log.Discard()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	waitContent(t, got)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.jackal"), []byte("x"), 0644))

	select {
	case c := <-got:
		t.Fatalf("unexpected delivery %q", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.jackal")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w, err := New(path, func(context.Context, string) {}, Options{Logger: log.Discard()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing.jackal"), func(context.Context, string) {}, Options{})
	assert.Error(t, err)

	_, err = New(dir, func(context.Context, string) {}, Options{})
	assert.Error(t, err)

	path := filepath.Join(dir, "main.jackal")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err = New(path, nil, Options{})
	assert.Error(t, err)
}
