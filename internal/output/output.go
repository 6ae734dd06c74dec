// Package output renders line statistics as tables, JSON or CSV.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/model"
)

// ColorEnabled reports whether colour should be used when writing to w:
// w must be a terminal and noColor unset.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FormatNumber formats n with thousands separators.
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatSigned formats n with thousands separators and an explicit sign
// for positive values.
func FormatSigned(n int64) string {
	if n > 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}

// Printer renders tables to a writer.
type Printer struct {
	w      io.Writer
	header lipgloss.Style
	cell   lipgloss.Style
	total  lipgloss.Style
	border lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.EnvColorProfile())
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	cell := r.NewStyle().Padding(0, 1)
	return &Printer{
		w:      w,
		header: cell.Bold(true).Foreground(lipgloss.Color("6")),
		cell:   cell,
		total:  cell.Bold(true).Foreground(lipgloss.Color("2")),
		border: r.NewStyle().Foreground(lipgloss.Color("8")),
		good:   cell.Foreground(lipgloss.Color("2")),
		bad:    cell.Foreground(lipgloss.Color("1")),
	}
}

func (p *Printer) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.border).
		Headers(headers...)
}

// Table writes per-language counts followed by a Total row.
func (p *Printer) Table(stats *model.ProjectStats) error {
	langs := stats.Languages()
	rows := make([][]string, 0, len(langs)+1)
	for _, ls := range langs {
		rows = append(rows, countRow(ls.Language, ls.Files, ls.Stats))
	}
	if len(langs) > 0 {
		files, total := stats.Total()
		rows = append(rows, countRow("Total", files, total))
	}
	last := len(rows) - 1

	t := p.newTable("Language", "Files", "Blank", "Comment", "Code", "Total").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = p.header
			case row == last && len(langs) > 0:
				s = p.total
			default:
				s = p.cell
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	_, err := fmt.Fprintln(p.w, t.String())
	return err
}

func countRow(name string, files int, s model.FileStats) []string {
	return []string{
		name,
		FormatNumber(int64(files)),
		FormatNumber(int64(s.Blank)),
		FormatNumber(int64(s.Comment)),
		FormatNumber(int64(s.Code)),
		FormatNumber(int64(s.Total())),
	}
}

type jsonCounts struct {
	Language string `json:"language,omitempty"`
	Files    int    `json:"files"`
	Blank    int    `json:"blank"`
	Comment  int    `json:"comment"`
	Code     int    `json:"code"`
	Total    int    `json:"total"`
}

type jsonReport struct {
	Languages []jsonCounts `json:"languages"`
	Total     jsonCounts   `json:"total"`
}

func toJSONCounts(name string, files int, s model.FileStats) jsonCounts {
	return jsonCounts{Language: name, Files: files, Blank: s.Blank, Comment: s.Comment, Code: s.Code, Total: s.Total()}
}

// JSON writes the counts as an indented JSON document.
func JSON(w io.Writer, stats *model.ProjectStats) error {
	rep := jsonReport{Languages: []jsonCounts{}}
	for _, ls := range stats.Languages() {
		rep.Languages = append(rep.Languages, toJSONCounts(ls.Language, ls.Files, ls.Stats))
	}
	files, total := stats.Total()
	rep.Total = toJSONCounts("", files, total)
	return writeJSON(w, rep)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CSV writes a header, one row per language and a Total row.
func CSV(w io.Writer, stats *model.ProjectStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"language", "files", "blank", "comment", "code", "total"}); err != nil {
		return err
	}
	for _, ls := range stats.Languages() {
		if err := cw.Write(csvRow(ls.Language, ls.Files, ls.Stats)); err != nil {
			return err
		}
	}
	files, total := stats.Total()
	if err := cw.Write(csvRow("Total", files, total)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(name string, files int, s model.FileStats) []string {
	return []string{
		name,
		strconv.Itoa(files),
		strconv.Itoa(s.Blank),
		strconv.Itoa(s.Comment),
		strconv.Itoa(s.Code),
		strconv.Itoa(s.Total()),
	}
}

// PlainTable writes rows under headers with the default styles.
func (p *Printer) PlainTable(headers []string, rows [][]string) error {
	t := p.newTable(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return p.cell
		})
	_, err := fmt.Fprintln(p.w, t.String())
	return err
}

// LanguagesJSON writes the language table as a JSON array.
func LanguagesJSON(w io.Writer, langs []*language.Language) error {
	return writeJSON(w, langs)
}
