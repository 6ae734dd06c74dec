package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chmouel/sniffy/internal/badge"
	"github.com/chmouel/sniffy/internal/cache"
	"github.com/chmouel/sniffy/internal/generator"
	"github.com/chmouel/sniffy/internal/output"
	"github.com/chmouel/sniffy/internal/processor"
	"github.com/chmouel/sniffy/internal/report"
	"github.com/chmouel/sniffy/internal/walker"
)

func (a *app) runCount(cmd *cobra.Command, opts *countOptions, args []string) error {
	opts.applyConfig(cmd, a.cfg)
	paths, err := opts.validate(cmd, args)
	if err != nil {
		return err
	}
	if opts.history {
		return a.runHistory(cmd.Context(), opts, paths)
	}

	sum, err := a.analyze(cmd.Context(), opts, paths)
	if err != nil {
		return err
	}
	if err := a.render(opts, paths, sum); err != nil {
		return err
	}
	if opts.badge != "" {
		_, total := sum.Stats.Total()
		err := badge.Generate(total, opts.badge, badge.Options{
			Kind:       opts.badgeKind,
			Thresholds: badge.Thresholds{Red: a.cfg.Badge.Red, Yellow: a.cfg.Badge.Yellow},
			Stdout:     a.stdout,
		})
		if err != nil {
			return fmt.Errorf("generating badge: %w", err)
		}
	}
	return nil
}

// analyze walks paths and classifies every file found.
func (a *app) analyze(ctx context.Context, opts *countOptions, paths []string) (*processor.Summary, error) {
	start := time.Now()
	for _, p := range paths {
		a.logger.Info("Scanning", zap.String("path", p))
	}

	w := walker.New(walker.Options{Hidden: opts.hidden, Exclude: opts.exclude, Logger: a.logger})
	files, err := w.Collect(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("walking: %w", err)
	}
	a.logger.Info("Found files, processing in parallel", zap.Int("files", len(files)))

	popts := processor.Options{
		Jobs:      opts.jobs,
		Exact:     opts.exact,
		KeepLines: opts.format == "html",
		Logger:    a.logger,
	}
	if opts.cache != "" && !popts.KeepLines {
		c, err := cache.Open(opts.cache)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		popts.Cache = c
	}

	sum, err := processor.New(a.detector, popts).Run(ctx, files)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Analysis complete",
		zap.Int("files", sum.Processed),
		zap.Duration("elapsed", time.Since(start)))
	return sum, nil
}

func (a *app) render(opts *countOptions, paths []string, sum *processor.Summary) error {
	switch opts.format {
	case "json":
		return output.JSON(a.stdout, sum.Stats)
	case "csv":
		return output.CSV(a.stdout, sum.Stats)
	case "html":
		return a.renderHTML(opts, paths, sum)
	default:
		p := output.NewPrinter(a.stdout, output.ColorEnabled(a.stdout, a.cfg.NoColor))
		return p.Table(sum.Stats)
	}
}

func (a *app) renderHTML(opts *countOptions, paths []string, sum *processor.Summary) error {
	rep, err := report.Build(sum.Results, report.Options{
		Root:            reportRoot(paths),
		CoverageProfile: opts.coverage,
	})
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	if err := generator.Generate(rep, opts.output, generator.Options{Title: opts.title, ShowBlank: opts.showBlank, Stdout: a.stdout}); err != nil {
		return fmt.Errorf("generating report: %w", err)
	}
	if opts.output == "-" {
		return nil
	}

	fmt.Fprintf(a.stdout, "Report written to %s\n", opts.output)
	fmt.Fprintf(a.stdout, "Lines: %s code, %s comment, %s blank in %s files\n",
		output.FormatNumber(int64(rep.Summary.Code)),
		output.FormatNumber(int64(rep.Summary.Comment)),
		output.FormatNumber(int64(rep.Summary.Blank)),
		output.FormatNumber(int64(rep.Summary.Files)))
	if rep.Summary.HasCoverage {
		fmt.Fprintf(a.stdout, "Coverage: %.1f%% (%d/%d code lines)\n",
			rep.Summary.CoveredPct, rep.Summary.CoveredLines, rep.Summary.StmtLines)
	}
	if opts.open {
		openBrowser(opts.output)
	}
	return nil
}

// reportRoot is the directory report paths are made relative to: the only
// path when a single directory was given, the working directory otherwise.
func reportRoot(paths []string) string {
	if len(paths) == 1 {
		if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
			return filepath.Clean(paths[0])
		}
	}
	return "."
}
