// Package walker finds the files sniffy should analyze.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// SkipDirs are directory names that are never descended into.
var SkipDirs = []string{
	".git",
	"node_modules",
	"target",
	"dist",
	"build",
	"vendor",
	"__pycache__",
	".venv",
	"bin",
	"obj",
}

// SkipFiles are generated files that are never analyzed.
var SkipFiles = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Cargo.lock",
	"go.sum",
	"composer.lock",
	"Gemfile.lock",
	"poetry.lock",
}

var skipSuffixes = []string{".min.js", ".min.css"}

// Options controls which files are yielded.
type Options struct {
	// Hidden includes dot-prefixed files and directories (.git stays skipped).
	Hidden bool
	// Exclude holds glob patterns matched against the base name and the
	// root-relative slash path. "dir/*" also excludes everything below dir.
	Exclude []string
	Logger  *zap.Logger
}

// Walker walks directory trees.
type Walker struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Walker.
func New(opts Options) *Walker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{opts: opts, logger: logger}
}

// Walk calls fn for every file under roots that passes the filters. A root
// that is a regular file is passed to fn as is.
func (w *Walker) Walk(ctx context.Context, roots []string, fn func(path string) error) error {
	for _, root := range roots {
		if err := w.walkRoot(ctx, root, fn); err != nil {
			return err
		}
	}
	return nil
}

// Collect returns every file Walk would yield.
func (w *Walker) Collect(ctx context.Context, roots []string) ([]string, error) {
	var files []string
	err := w.Walk(ctx, roots, func(p string) error {
		files = append(files, p)
		return nil
	})
	return files, err
}

func (w *Walker) walkRoot(ctx context.Context, root string, fn func(string) error) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fn(root)
	}

	ignores := map[string]*ignore.GitIgnore{}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if p == root {
				return err
			}
			if errors.Is(err, fs.ErrPermission) || (d != nil && d.IsDir()) {
				w.logger.Warn("skipping unreadable path", zap.String("path", p), zap.Error(err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			w.logger.Warn("walk error", zap.String("path", p), zap.Error(err))
			return nil
		}

		name := d.Name()
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p != root {
				if w.skipDir(name) || w.excluded(rel, name) || w.ignored(ignores, root, p, true) {
					w.logger.Debug("skipping directory", zap.String("path", p))
					return filepath.SkipDir
				}
			}
			w.loadGitignore(ignores, p)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if w.skipFile(name) || w.excluded(rel, name) || w.ignored(ignores, root, p, false) {
			return nil
		}
		return fn(p)
	})
}

func (w *Walker) skipDir(name string) bool {
	if isHidden(name) && !w.opts.Hidden {
		return true
	}
	for _, s := range SkipDirs {
		if name == s {
			return true
		}
	}
	return false
}

func (w *Walker) skipFile(name string) bool {
	if isHidden(name) && !w.opts.Hidden {
		return true
	}
	for _, s := range SkipFiles {
		if name == s {
			return true
		}
	}
	lower := strings.ToLower(name)
	for _, s := range skipSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(rel, name string) bool {
	for _, raw := range w.opts.Exclude {
		p := strings.TrimSuffix(filepath.ToSlash(strings.TrimSpace(raw)), "/")
		if p == "" {
			continue
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if strings.HasSuffix(p, "/*") && strings.HasPrefix(rel, strings.TrimSuffix(p, "/*")+"/") {
			return true
		}
	}
	return false
}

func (w *Walker) loadGitignore(ignores map[string]*ignore.GitIgnore, dir string) {
	f := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(f); err != nil {
		return
	}
	gi, err := ignore.CompileIgnoreFile(f)
	if err != nil {
		w.logger.Warn("cannot read .gitignore", zap.String("path", f), zap.Error(err))
		return
	}
	ignores[dir] = gi
}

// ignored checks p against the .gitignore of every directory from root down
// to p's parent, each one matching paths relative to its own directory.
func (w *Walker) ignored(ignores map[string]*ignore.GitIgnore, root, p string, isDir bool) bool {
	if len(ignores) == 0 {
		return false
	}
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if gi, ok := ignores[dir]; ok {
			rel, err := filepath.Rel(dir, p)
			if err == nil {
				rel = filepath.ToSlash(rel)
				if gi.MatchesPath(rel) || (isDir && gi.MatchesPath(rel+"/")) {
					return true
				}
			}
		}
		if dir == root || dir == filepath.Dir(dir) {
			return false
		}
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
