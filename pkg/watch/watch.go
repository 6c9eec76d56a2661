// Package watch reports changes to a fixed set of files.
//
// Editors often replace a file instead of writing it in place, so a [Watcher]
// watches the parent directory of every file and filters events by name.
// Events arriving within the debounce window are delivered as one batch.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/macropower/condfmt/pkg/log"
)

// DefaultDebounce is the default quiet period before a batch is delivered.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoFiles indicates a [Watcher] created without files.
var ErrNoFiles = errors.New("no files to watch")

// Handler receives the changed files of one batch, in the order they were
// passed to [New].
type Handler func(ctx context.Context, changed []string)

// Watcher watches files for content changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	// Absolute file path to the path given to New.
	files map[string]string
	order []string

	debounce time.Duration
}

// Option configures a [Watcher].
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a [Watcher] for paths.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    map[string]string{},
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := map[string]struct{}{}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("resolve %q: %w", path, err), fw.Close())
		}

		if _, ok := w.files[abs]; ok {
			continue
		}

		w.files[abs] = path
		w.order = append(w.order, path)

		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}

		err = fw.Add(dir)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("add path to watcher: %w", err), fw.Close())
		}

		dirs[dir] = struct{}{}
	}

	slog.Debug("added file watchers",
		slog.Int("files", len(w.files)),
		slog.Int("dirs", len(dirs)),
	)

	return w, nil
}

// Run delivers batches of changed files to fn until ctx is done or the
// watcher is closed. Watcher errors are logged and do not stop Run.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	logger := log.WithContext(ctx)

	var (
		pending = map[string]struct{}{}
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return ctx.Err() //nolint:wrapcheck // Return the original error.

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			path, watched := w.match(evt)
			if !watched {
				continue
			}

			logger.DebugContext(ctx, "file event", slog.String("event", evt.String()))

			pending[path] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			fire = timer.C

		case <-fire:
			fire = nil

			changed := make([]string, 0, len(pending))
			for _, path := range w.order {
				if _, ok := pending[path]; ok {
					changed = append(changed, path)
				}
			}

			clear(pending)
			fn(ctx, changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			logger.ErrorContext(ctx, "watch files", slog.Any("error", err))
		}
	}
}

// match returns the watched path of evt, ignoring events that do not change
// file content.
func (w *Watcher) match(evt fsnotify.Event) (string, bool) {
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
		return "", false
	}

	path, ok := w.files[filepath.Clean(evt.Name)]

	return path, ok
}

// Files returns the watched paths as given to [New].
func (w *Watcher) Files() []string {
	return slices.Clone(w.order)
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}
