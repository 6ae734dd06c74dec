package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/chmouel/sniffy/internal/classifier"
	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/output"
)

func newLanguagesCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages and their comment syntax",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			langs := a.detector.All()
			switch format {
			case "json":
				return output.LanguagesJSON(a.stdout, langs)
			case "table":
				rows := make([][]string, 0, len(langs))
				for _, l := range langs {
					rows = append(rows, languageRow(l))
				}
				p := output.NewPrinter(a.stdout, output.ColorEnabled(a.stdout, a.cfg.NoColor))
				return p.PlainTable([]string{"Language", "Extensions", "Line", "Block", "Nested", "Exact"}, rows)
			default:
				return usageError("Invalid format '%s'. Supported formats: table, json", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	return cmd
}

func languageRow(l *language.Language) []string {
	blocks := make([]string, 0, len(l.BlockComments))
	for _, b := range l.BlockComments {
		blocks = append(blocks, b.Start+" "+b.End)
	}
	return []string{
		l.Name,
		strings.Join(l.Extensions, " "),
		strings.Join(l.LineComments, " "),
		strings.Join(blocks, ", "),
		yesNo(l.Nested),
		yesNo(classifier.SupportsExact(l.Name)),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
