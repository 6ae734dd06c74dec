package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chmouel/sniffy/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	opts := &countOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Recount lines whenever files change",
		Long: `watch prints the line counts of the given paths, then prints them again
each time files change under them, until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd, a.cfg)
			paths, err := opts.validate(cmd, args)
			if err != nil {
				return err
			}
			if opts.format == "html" {
				return usageError("The html format is not available in watch mode")
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = a.cfg.DebounceDuration()
			}

			recount := func(ctx context.Context) error {
				sum, err := a.analyze(ctx, opts, paths)
				if err != nil {
					return err
				}
				if opts.format == "table" {
					fmt.Fprintf(a.stdout, "\n%s\n", time.Now().Format(time.TimeOnly))
				}
				return a.render(opts, paths, sum)
			}

			ctx := cmd.Context()
			if err := recount(ctx); err != nil {
				return err
			}
			return watch.Run(ctx, paths, watch.Options{
				Debounce: debounce,
				Hidden:   opts.hidden,
				Logger:   a.logger,
			}, recount)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.hidden, "hidden", "H", false, "include hidden files and directories")
	f.IntVarP(&opts.jobs, "jobs", "j", 0, "number of parallel workers (0 = number of CPUs)")
	f.StringVar(&opts.format, "format", "table", "output format: table, json or csv")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "glob of files or directories to skip (repeatable)")
	f.BoolVar(&opts.exact, "exact", false, "classify supported languages from their syntax tree")
	f.StringVar(&opts.cache, "cache", "", "SQLite file caching per-file results between runs")
	f.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before recounting")
	return cmd
}
