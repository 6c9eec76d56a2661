package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/pkg/watch"
)

func TestNewNoFiles(t *testing.T) {
	t.Parallel()

	_, err := watch.New(nil)
	require.ErrorIs(t, err, watch.ErrNoFiles)
}

func TestWatcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	values := filepath.Join(dir, "values.yaml")
	other := filepath.Join(dir, "other.yaml")

	for _, path := range []string{rules, values, other} {
		require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))
	}

	w, err := watch.New([]string{rules, values, rules}, watch.WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, w.Close())
	})

	assert.Equal(t, []string{rules, values}, w.Files())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			batches <- changed
		})
	}()

	// Unwatched files in the same directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("a: 2\n"), 0o600))
	require.NoError(t, os.WriteFile(values, []byte("a: 2\n"), 0o600))
	require.NoError(t, os.WriteFile(rules, []byte("a: 2\n"), 0o600))

	select {
	case changed := <-batches:
		assert.Equal(t, []string{rules, values}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for file events")
	}

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}
}
