package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chmouel/sniffy/internal/config"
	"github.com/chmouel/sniffy/internal/history"
)

const defaultHTMLOutput = "sniffy.html"

// countOptions holds the flags of the root command.
type countOptions struct {
	hidden  bool
	jobs    int
	format  string
	exclude []string
	exact   bool
	cache   string

	output    string
	title     string
	coverage  string
	open      bool
	showBlank bool
	badge     string
	badgeKind string

	history bool
	since   string
	until   string
	last    int
	byDay   bool
	byWeek  bool
	author  string
	limit   int
	top     int
}

func (o *countOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&o.hidden, "hidden", "H", false, "include hidden files and directories")
	f.IntVarP(&o.jobs, "jobs", "j", 0, "number of parallel workers (0 = number of CPUs)")
	f.StringVar(&o.format, "format", "table", "output format: table, json, csv or html")
	f.StringArrayVar(&o.exclude, "exclude", nil, "glob of files or directories to skip (repeatable)")
	f.BoolVar(&o.exact, "exact", false, "classify Go, Python, Rust, JavaScript and TypeScript from their syntax tree")
	f.StringVar(&o.cache, "cache", "", "SQLite file caching per-file results between runs")

	f.StringVarP(&o.output, "output", "o", defaultHTMLOutput, "HTML report file (- for stdout)")
	f.StringVar(&o.title, "title", "", "HTML report title")
	f.StringVar(&o.coverage, "coverage", "", "Go coverage profile to overlay on the HTML report")
	f.BoolVar(&o.open, "open", false, "open the HTML report in a browser")
	f.BoolVar(&o.showBlank, "show-blank", false, "highlight blank lines in the HTML report")
	f.StringVar(&o.badge, "badge", "", "write an SVG badge to this file (- for stdout)")
	f.StringVar(&o.badgeKind, "badge-kind", "", "badge kind: code or comments")

	f.BoolVar(&o.history, "history", false, "analyze git commit history")
	f.StringVar(&o.since, "since", "", "only analyze commits since this date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&o.until, "until", "", "only analyze commits until this date (YYYY-MM-DD or RFC3339)")
	f.IntVar(&o.last, "last", 0, "only analyze commits of the last N days")
	f.BoolVar(&o.byDay, "by-day", false, "group history by day (default)")
	f.BoolVar(&o.byWeek, "by-week", false, "group history by week")
	f.StringVar(&o.author, "author", "", "only show authors whose name contains NAME")
	f.IntVar(&o.limit, "limit", 0, "rows of the history table (0 = 30 days or 12 weeks, -1 = all)")
	f.IntVar(&o.top, "top", 0, "number of top contributors to show (0 = 10)")
}

// applyConfig fills the options the user did not set on the command line
// from the configuration file and environment.
func (o *countOptions) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if !f.Changed("format") && cfg.Format != "" {
		o.format = cfg.Format
	}
	if !f.Changed("jobs") {
		o.jobs = cfg.Jobs
	}
	if !f.Changed("hidden") {
		o.hidden = cfg.Hidden
	}
	if !f.Changed("exact") {
		o.exact = cfg.Exact
	}
	if !f.Changed("cache") {
		o.cache = cfg.Cache
	}
	if !f.Changed("badge-kind") {
		o.badgeKind = cfg.Badge.Kind
	}
	o.exclude = append(append([]string(nil), cfg.Exclude...), o.exclude...)
}

// validate checks the flag combinations and returns the paths to analyze.
func (o *countOptions) validate(cmd *cobra.Command, args []string) ([]string, error) {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if err := checkPaths(paths); err != nil {
		return nil, err
	}

	if o.byDay && o.byWeek {
		return nil, usageError("Cannot use both --by-day and --by-week")
	}

	f := cmd.Flags()
	historyOnly := f.Changed("since") || f.Changed("until") || f.Changed("last") ||
		o.byDay || o.byWeek || f.Changed("author")
	if !o.history && historyOnly {
		return nil, usageError("History-related flags (--since, --until, --last, --by-day, --by-week, --author) require --history")
	}
	if f.Changed("last") {
		if f.Changed("since") || f.Changed("until") {
			return nil, usageError("Cannot use --last with --since or --until")
		}
		if o.last < 1 {
			return nil, usageError("--last must be at least 1, got %d", o.last)
		}
	}

	o.format = strings.ToLower(o.format)
	if !config.ValidFormat(o.format) {
		return nil, usageError("Invalid format '%s'. Supported formats: %s", o.format, strings.Join(config.ValidFormats, ", "))
	}
	if o.history && o.format == "html" {
		return nil, usageError("The html format is not available with --history")
	}
	if o.jobs < 0 {
		return nil, usageError("--jobs must not be negative, got %d", o.jobs)
	}

	if o.history {
		if _, err := o.historyRange(time.Now()); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func checkPaths(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return usageError("Path does not exist: %s", p)
		}
	}
	return nil
}

// parseDate accepts RFC3339 or YYYY-MM-DD (UTC). A bare date used as an
// upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, usageError("Invalid date format '%s'. Use YYYY-MM-DD or RFC3339 format.", s)
}

// historyRange resolves --since, --until and --last relative to now.
func (o *countOptions) historyRange(now time.Time) (history.Range, error) {
	var r history.Range
	if o.last > 0 {
		r.Since = now.UTC().AddDate(0, 0, -o.last)
		return r, nil
	}
	if o.since != "" {
		t, err := parseDate(o.since, false)
		if err != nil {
			return r, err
		}
		r.Since = t
	}
	if o.until != "" {
		t, err := parseDate(o.until, true)
		if err != nil {
			return r, err
		}
		r.Until = t
	}
	if !r.Since.IsZero() && !r.Until.IsZero() && r.Until.Before(r.Since) {
		return r, usageError("--until (%s) is before --since (%s)", o.until, o.since)
	}
	return r, nil
}

func describeRange(r history.Range) string {
	const layout = "2006-01-02 15:04:05 MST"
	switch {
	case !r.Since.IsZero() && !r.Until.IsZero():
		return fmt.Sprintf("Analyzing commits from %s to %s", r.Since.Format(layout), r.Until.Format(layout))
	case !r.Since.IsZero():
		return "Analyzing commits since " + r.Since.Format(layout)
	case !r.Until.IsZero():
		return "Analyzing commits until " + r.Until.Format(layout)
	default:
		return "Analyzing all commits"
	}
}
