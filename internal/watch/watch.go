// Package watch re-runs an analysis when files under a set of roots change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/chmouel/sniffy/internal/walker"
)

// DefaultDebounce is the quiet period used when Options.Debounce is unset.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Hidden also watches dot-prefixed directories.
	Hidden bool
	Logger *zap.Logger
}

// Watcher watches directory trees with fsnotify.
type Watcher struct {
	fsw    *fsnotify.Watcher
	opts   Options
	logger *zap.Logger
	dirs   map[string]bool
}

// New creates a Watcher and adds every directory under roots. Roots that
// are files are watched through their parent directory.
func New(roots []string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, opts: opts, logger: logger, dirs: make(map[string]bool)}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", root, err)
		}
		if !info.IsDir() {
			root = filepath.Dir(root)
		}
		if err := w.addTree(filepath.Clean(root)); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Dirs returns the watched directories, sorted.
func (w *Watcher) Dirs() []string {
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) skip(name string) bool {
	if slices.Contains(walker.SkipDirs, name) {
		return true
	}
	return !w.opts.Hidden && strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				w.logger.Warn("skipping unreadable directory", zap.String("path", p), zap.Error(err))
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.skip(d.Name()) {
			return fs.SkipDir
		}
		if w.dirs[p] {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		w.dirs[p] = true
		w.logger.Debug("watching directory", zap.String("path", p))
		return nil
	})
}

// Run blocks until ctx is done, calling onChange once per burst of file
// events after the debounce period has passed without new events. Errors
// from onChange are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.skip(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("analysis failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if slices.Contains(walker.SkipFiles, base) {
		return false
	}
	// Editor swap and backup files.
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") {
		return false
	}
	return true
}

// Run watches roots until ctx is done, calling onChange after each debounced
// burst of changes.
func Run(ctx context.Context, roots []string, opts Options, onChange func(context.Context) error) error {
	w, err := New(roots, opts)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, onChange)
}
