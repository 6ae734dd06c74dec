// Package processor reads files, classifies their lines and aggregates the
// counts per language using a bounded pool of workers.
package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chmouel/sniffy/internal/cache"
	"github.com/chmouel/sniffy/internal/classifier"
	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/model"
)

const (
	binarySniffSize = 8 * 1024
	progressEvery   = 100
)

// Options configures a Processor.
type Options struct {
	// Jobs bounds the number of files processed at once. 0 means GOMAXPROCS.
	Jobs int
	// Exact classifies supported languages from a tree-sitter syntax tree.
	Exact bool
	// KeepLines keeps line text and per-line classes in each Result.
	KeepLines bool
	// Cache, when set, skips files whose size and mtime did not change.
	// Entries for files not seen by Run are pruned afterwards.
	Cache  *cache.Cache
	Logger *zap.Logger
}

// Result is the outcome of processing one file.
type Result struct {
	Path     string
	Language string
	Stats    model.FileStats
	Lines    []string
	Classes  []model.LineType
}

// Summary is the outcome of Run.
type Summary struct {
	Stats     *model.ProjectStats
	Results   []Result
	Scanned   int
	Processed int
}

// Processor classifies files.
type Processor struct {
	detector *language.Detector
	opts     Options
	logger   *zap.Logger
}

// New returns a Processor using detector for language detection.
func New(detector *language.Detector, opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{detector: detector, opts: opts, logger: logger}
}

func (p *Processor) mode() string {
	if p.opts.Exact {
		return "exact"
	}
	return "heuristic"
}

// IsBinary reports whether the file at path looks binary: a NUL byte in
// its first 8 KiB. Empty files are text.
func IsBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, binarySniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return isBinaryContent(buf[:n]), nil
}

func isBinaryContent(b []byte) bool {
	if len(b) > binarySniffSize {
		b = b[:binarySniffSize]
	}
	return bytes.IndexByte(b, 0) >= 0
}

// ProcessFile classifies a single file. The boolean is false when the file
// was skipped: binary, unknown language or unreadable.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Warn("cannot stat file", zap.String("path", path), zap.Error(err))
		return Result{}, false
	}

	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	size, mtime := info.Size(), info.ModTime().UnixNano()

	if p.opts.Cache != nil && !p.opts.KeepLines {
		e, ok, err := p.opts.Cache.Get(key, p.mode(), size, mtime)
		if err != nil {
			p.logger.Debug("cache lookup failed", zap.String("path", path), zap.Error(err))
		}
		if ok {
			return Result{Path: path, Language: e.Language, Stats: e.Stats}, true
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("cannot read file", zap.String("path", path), zap.Error(err))
		return Result{}, false
	}
	if isBinaryContent(content) {
		p.logger.Debug("skipping binary file", zap.String("path", path))
		return Result{}, false
	}

	spans := classifier.LineSpans(content)
	lang := p.detector.Detect(path)
	if lang == nil && len(spans) > 0 {
		lang = p.detector.DetectShebang(string(content[spans[0][0]:spans[0][1]]))
	}
	if lang == nil {
		return Result{}, false
	}

	res := p.classify(ctx, path, lang, content, spans)

	if p.opts.Cache != nil {
		if err := p.opts.Cache.Put(key, p.mode(), size, mtime, cache.Entry{Language: res.Language, Stats: res.Stats}); err != nil {
			p.logger.Debug("cache store failed", zap.String("path", path), zap.Error(err))
		}
	}
	if !p.opts.KeepLines {
		res.Lines, res.Classes = nil, nil
	}
	return res, true
}

func (p *Processor) classify(ctx context.Context, path string, lang *language.Language, content []byte, spans [][2]int) Result {
	valid := make([]bool, len(spans))
	lines := make([]string, 0, len(spans))
	invalid := 0
	for i, sp := range spans {
		l := content[sp[0]:sp[1]]
		if !utf8.Valid(l) {
			invalid++
			continue
		}
		valid[i] = true
		lines = append(lines, string(l))
	}
	if invalid > 0 {
		p.logger.Warn("skipping lines that are not valid UTF-8", zap.String("path", path), zap.Int("lines", invalid))
	}

	res := Result{Path: path, Language: lang.Name, Lines: lines}

	if p.opts.Exact && classifier.SupportsExact(lang.Name) {
		types, _, err := classifier.Exact(ctx, lang.Name, path, content)
		if err == nil {
			res.Classes = make([]model.LineType, 0, len(lines))
			for i, t := range types {
				if valid[i] {
					res.Classes = append(res.Classes, t)
					res.Stats.Count(t)
				}
			}
			return res
		}
		p.logger.Warn("exact classification failed, falling back", zap.String("path", path), zap.Error(err))
	}

	res.Classes, res.Stats = classifier.New(lang).ClassifyLines(lines)
	return res
}

// Run processes paths in parallel and aggregates the results.
func (p *Processor) Run(ctx context.Context, paths []string) (*Summary, error) {
	jobs := p.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(paths))
	ok := make([]bool, len(paths))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], ok[i] = p.ProcessFile(gctx, path)
			if n := done.Add(1); n%progressEvery == 0 {
				p.logger.Info("progress", zap.Int64("files", n), zap.Int("total", len(paths)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{Stats: model.NewProjectStats(), Scanned: len(paths)}
	seen := make(map[string]bool, len(paths))
	for i, r := range results {
		if !ok[i] {
			continue
		}
		sum.Processed++
		sum.Stats.AddFile(r.Language, r.Stats)
		sum.Results = append(sum.Results, r)
		if abs, err := filepath.Abs(r.Path); err == nil {
			seen[abs] = true
		}
	}

	if p.opts.Cache != nil {
		if n, err := p.opts.Cache.Prune(seen); err != nil {
			p.logger.Warn("cache prune failed", zap.Error(err))
		} else if n > 0 {
			p.logger.Debug("pruned cache entries", zap.Int("entries", n))
		}
	}

	p.logger.Info("analysis complete",
		zap.Int("scanned", sum.Scanned),
		zap.Int("processed", sum.Processed),
		zap.Int("languages", sum.Stats.Len()))
	return sum, nil
}
