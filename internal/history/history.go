// Package history measures how the line counts of a git repository changed
// over time by classifying the lines added and deleted by each commit.
package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/chmouel/sniffy/internal/classifier"
	"github.com/chmouel/sniffy/internal/model"
)

// ErrNotRepo is returned when a path is not inside a git work tree.
var ErrNotRepo = errors.New("not a git repository")

const (
	commitMarker  = "COMMIT\x1f"
	progressEvery = 100
)

// Range limits the analysis to commits in [Since, Until]. Zero values are
// unbounded.
type Range struct {
	Since time.Time
	Until time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Since.IsZero() && t.Before(r.Since) {
		return false
	}
	if !r.Until.IsZero() && t.After(r.Until) {
		return false
	}
	return true
}

// Analyzer runs history analysis on one repository.
type Analyzer struct {
	root   string
	logger *zap.Logger
}

func gitDir(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// IsRepo reports whether path is inside a git work tree.
func IsRepo(ctx context.Context, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = gitDir(path)
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// New returns an Analyzer for the repository containing path.
func New(ctx context.Context, path string, logger *zap.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git executable not found: %w", err)
	}
	if !IsRepo(ctx, path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRepo)
	}

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = gitDir(path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-parse failed: %w", err)
	}
	return &Analyzer{root: strings.TrimSpace(string(out)), logger: logger}, nil
}

// Root returns the top level directory of the repository.
func (a *Analyzer) Root() string {
	return a.root
}

func (a *Analyzer) hasCommits(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", "HEAD")
	cmd.Dir = a.root
	return cmd.Run() == nil
}

// Analyze walks every commit reachable from HEAD. Merge commits are diffed
// against their first parent and the root commit against the empty tree.
func (a *Analyzer) Analyze(ctx context.Context, r Range) (*model.HistoricalStats, error) {
	if !a.hasCommits(ctx) {
		a.logger.Info("repository has no commits")
		return model.NewHistoricalStats(), nil
	}

	args := []string{
		"-c", "core.quotepath=off",
		"log", "-p", "--unified=0",
		"--diff-merges=first-parent",
		"--no-color", "--no-renames", "--no-ext-diff", "--no-textconv",
		"--format=COMMIT%x1f%H%x1f%an%x1f%ct",
	}
	if !r.Since.IsZero() {
		args = append(args, "--since=@"+strconv.FormatInt(r.Since.Unix(), 10))
	}
	if !r.Until.IsZero() {
		args = append(args, "--until=@"+strconv.FormatInt(r.Until.Unix(), 10))
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = a.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	a.logger.Info("analyzing git history", zap.String("repo", a.root))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	stats, parseErr := ParseLog(stdout, r, a.logger)
	if parseErr != nil {
		// Drain so git is not blocked writing to a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("git log failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if parseErr != nil {
		return nil, parseErr
	}

	a.logger.Info("history analysis complete",
		zap.Int("commits", stats.TotalCommits),
		zap.Duration("elapsed", time.Since(start)))
	return stats, nil
}

type commit struct {
	author  string
	when    time.Time
	added   model.FileStats
	deleted model.FileStats
}

// ParseLog parses the output of
//
//	git log -p --unified=0 --format=COMMIT%x1f%H%x1f%an%x1f%ct
//
// and aggregates it. Commits outside r are skipped.
func ParseLog(rd io.Reader, r Range, logger *zap.Logger) (*model.HistoricalStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stats := model.NewHistoricalStats()
	daily := make(map[model.Date]*model.DailyStats)

	var (
		cur    *commit
		inHunk bool
	)
	flush := func() {
		if cur == nil || !r.Contains(cur.when) {
			return
		}
		stats.TotalCommits++
		day := model.DateOf(cur.when)
		d, ok := daily[day]
		if !ok {
			d = &model.DailyStats{Date: day}
			daily[day] = d
		}
		d.Record(cur.added, cur.deleted)
		if cur.author != "" {
			stats.ByAuthor[cur.author] = stats.ByAuthor[cur.author].Add(cur.added)
		}
		if stats.TotalCommits%progressEvery == 0 {
			logger.Info("analyzing commits", zap.Int("commits", stats.TotalCommits))
		}
	}

	br := bufio.NewReader(rd)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			switch {
			case strings.HasPrefix(line, commitMarker):
				flush()
				c, perr := parseHeader(line)
				if perr != nil {
					return nil, perr
				}
				cur, inHunk = c, false
			case strings.HasPrefix(line, "diff --git "):
				inHunk = false
			case strings.HasPrefix(line, "@@"):
				inHunk = true
			case cur != nil && inHunk && strings.HasPrefix(line, "+"):
				cur.added.Count(classifyDiff(line[1:]))
			case cur != nil && inHunk && strings.HasPrefix(line, "-"):
				cur.deleted.Count(classifyDiff(line[1:]))
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading git log: %w", err)
		}
	}
	flush()

	stats.Daily = make([]model.DailyStats, 0, len(daily))
	for _, d := range daily {
		stats.Daily = append(stats.Daily, *d)
	}
	model.SortRecentFirst(stats.Daily)

	logger.Info(fmt.Sprintf("Completed analyzing %d commits", stats.TotalCommits))
	return stats, nil
}

func classifyDiff(text string) model.LineType {
	if !utf8.ValidString(text) {
		return model.LineCode
	}
	return classifier.ClassifyDiffLine(text)
}

func parseHeader(line string) (*commit, error) {
	parts := strings.Split(strings.TrimPrefix(line, commitMarker), "\x1f")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed commit header %q", line)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed commit time in %q: %w", line, err)
	}
	return &commit{author: parts[1], when: time.Unix(ts, 0).UTC()}, nil
}
