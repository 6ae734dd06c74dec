package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chmouel/sniffy/internal/history"
	"github.com/chmouel/sniffy/internal/output"
)

func (a *app) runHistory(ctx context.Context, opts *countOptions, paths []string) error {
	path := paths[0]
	if !history.IsRepo(ctx, path) {
		return fmt.Errorf("%s is not in a git repository", path)
	}

	analyzer, err := history.New(ctx, path, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	rng, err := opts.historyRange(time.Now())
	if err != nil {
		return err
	}
	a.logger.Info(describeRange(rng), zap.String("repository", analyzer.Root()))

	stats, err := analyzer.Analyze(ctx, rng)
	if err != nil {
		return fmt.Errorf("failed to analyze git history: %w", err)
	}
	if opts.author != "" {
		stats = stats.FilterAuthor(opts.author)
	}

	hopts := output.HistoryOptions{Weekly: opts.byWeek, Limit: opts.limit, TopAuthors: opts.top}
	switch opts.format {
	case "json":
		return output.HistoryJSON(a.stdout, stats, hopts)
	case "csv":
		return output.HistoryCSV(a.stdout, stats, hopts)
	default:
		p := output.NewPrinter(a.stdout, output.ColorEnabled(a.stdout, a.cfg.NoColor))
		return p.HistoryTable(stats, hopts)
	}
}
