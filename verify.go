package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chmouel/sniffy/internal/fixture"
	"github.com/chmouel/sniffy/internal/output"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		format string
		exact  bool
	)
	cmd := &cobra.Command{
		Use:   "verify FIXTURE...",
		Short: "Check annotated fixtures against the classifier",
		Long: `verify reads files ending with an "Expected counts:" comment block,
classifies the lines before the block and reports every category whose
count differs from the annotation. It exits with status 1 when any fixture
fails.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError("verify needs at least one fixture")
			}
			return checkPaths(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("exact") {
				exact = a.cfg.Exact
			}
			switch format {
			case "table", "json":
			default:
				return usageError("Invalid format '%s'. Supported formats: table, json", format)
			}

			results := a.verify(cmd.Context(), args, exact)
			var err error
			if format == "json" {
				err = output.VerifyJSON(a.stdout, results)
			} else {
				err = output.NewPrinter(a.stdout, output.ColorEnabled(a.stdout, a.cfg.NoColor)).VerifyTable(results)
			}
			if err != nil {
				return err
			}
			if failed := output.CountFailed(results); failed > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d of %d fixtures failed", failed, len(results))}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	cmd.Flags().BoolVar(&exact, "exact", false, "classify supported languages from their syntax tree")
	return cmd
}

func (a *app) verify(ctx context.Context, paths []string, exact bool) []output.VerifyResult {
	classify := fixture.NewClassifyFunc(ctx, a.detector, exact)
	results := make([]output.VerifyResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, verifyOne(path, classify))
	}
	return results
}

func verifyOne(path string, classify fixture.ClassifyFunc) output.VerifyResult {
	res := output.VerifyResult{Path: path, Status: output.StatusError}

	fx, err := fixture.Load(path)
	if err != nil {
		res.Problems = append(res.Problems, err.Error())
		return res
	}
	res.Expected = &fx.Expected

	invalid := fx.Validate()
	if invalid != nil {
		res.Problems = append(res.Problems, invalid.Error())
	}

	out, err := fixture.Verify(fx, classify)
	if err != nil {
		res.Problems = append(res.Problems, err.Error())
		return res
	}
	res.Actual = &out.Actual
	res.Mismatches = out.Mismatches

	res.Status = output.StatusPass
	if !out.Passed() || invalid != nil {
		res.Status = output.StatusFail
	}
	return res
}
