package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/chmouel/sniffy/internal/model"
)

// Display limits used when HistoryOptions leaves them unset.
const (
	DefaultDayLimit   = 30
	DefaultWeekLimit  = 12
	DefaultTopAuthors = 10
)

// HistoryOptions controls how history is rendered.
type HistoryOptions struct {
	Weekly bool
	// Limit caps the rows of the time series table. 0 uses the default for
	// the granularity, a negative value shows everything.
	Limit int
	// TopAuthors caps the contributors table. 0 uses the default.
	TopAuthors int
}

func (o HistoryOptions) period() string {
	if o.Weekly {
		return "weekly"
	}
	return "daily"
}

func (o HistoryOptions) limit() int {
	switch {
	case o.Limit > 0:
		return o.Limit
	case o.Limit < 0:
		return -1
	case o.Weekly:
		return DefaultWeekLimit
	default:
		return DefaultDayLimit
	}
}

func (o HistoryOptions) topAuthors() int {
	if o.TopAuthors > 0 {
		return o.TopAuthors
	}
	return DefaultTopAuthors
}

// TimeSeries returns the daily series, or the weekly one when Weekly is set.
func (o HistoryOptions) TimeSeries(h *model.HistoricalStats) []model.DailyStats {
	if o.Weekly {
		return h.AggregateByWeek()
	}
	return h.Daily
}

// HistoryTable writes a summary, the time series and the top contributors.
func (p *Printer) HistoryTable(h *model.HistoricalStats, opts HistoryOptions) error {
	series := opts.TimeSeries(h)

	var sb strings.Builder
	sb.WriteString(p.header.UnsetPadding().Render("Git History Analysis") + "\n")
	fmt.Fprintf(&sb, "Total Commits: %s\n", FormatNumber(int64(h.TotalCommits)))
	from, to := "N/A", "N/A"
	if len(series) > 0 {
		from, to = series[len(series)-1].Date.String(), series[0].Date.String()
	}
	fmt.Fprintf(&sb, "Date Range: %s to %s\n\n", from, to)

	if len(series) > 0 {
		label, unit := "Daily", "days"
		if opts.Weekly {
			label, unit = "Weekly", "weeks"
		}
		shown := series
		if n := opts.limit(); n >= 0 && len(series) > n {
			shown = series[:n]
		}

		rows := make([][]string, 0, len(shown))
		for _, d := range shown {
			rows = append(rows, []string{
				d.Date.String(),
				FormatNumber(int64(d.Additions.Code)),
				FormatNumber(int64(d.Deletions.Code)),
				FormatSigned(d.NetCode),
			})
		}
		t := p.newTable("Date", "Added", "Deleted", "Net Change").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return p.header
				case col == 1:
					return p.good.Align(lipgloss.Right)
				case col == 2:
					return p.bad.Align(lipgloss.Right)
				case col == 3:
					switch net := shown[row].NetCode; {
					case net > 0:
						return p.good.Align(lipgloss.Right)
					case net < 0:
						return p.bad.Align(lipgloss.Right)
					}
					return p.cell.Align(lipgloss.Right)
				}
				return p.cell
			})

		fmt.Fprintf(&sb, "%s Statistics:\n%s\n", label, t.String())
		if more := len(series) - len(shown); more > 0 {
			fmt.Fprintf(&sb, "... and %d more %s\n", more, unit)
		}
		sb.WriteString("\n")
	}

	if authors := h.TopAuthors(opts.topAuthors()); len(authors) > 0 {
		rows := make([][]string, 0, len(authors))
		for _, a := range authors {
			rows = append(rows, []string{
				a.Author,
				FormatNumber(int64(a.Stats.Code)),
				FormatNumber(int64(a.Stats.Comment)),
				FormatNumber(int64(a.Stats.Total())),
			})
		}
		t := p.newTable("Author", "Code Lines", "Comments", "Total").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return p.header
				}
				if col > 0 {
					return p.cell.Align(lipgloss.Right)
				}
				return p.cell
			})
		fmt.Fprintf(&sb, "Top Contributors:\n%s\n", t.String())
	}

	_, err := io.WriteString(p.w, sb.String())
	return err
}

type historyJSON struct {
	TotalCommits int                 `json:"total_commits"`
	Period       string              `json:"period"`
	TimeSeries   []model.DailyStats  `json:"time_series"`
	ByAuthor     []model.AuthorStats `json:"by_author"`
}

// HistoryJSON writes the whole time series and every author as JSON.
func HistoryJSON(w io.Writer, h *model.HistoricalStats, opts HistoryOptions) error {
	doc := historyJSON{
		TotalCommits: h.TotalCommits,
		Period:       opts.period(),
		TimeSeries:   opts.TimeSeries(h),
		ByAuthor:     h.TopAuthors(0),
	}
	if doc.TimeSeries == nil {
		doc.TimeSeries = []model.DailyStats{}
	}
	return writeJSON(w, doc)
}

// HistoryCSV writes one row per day (or week) of the time series.
func HistoryCSV(w io.Writer, h *model.HistoricalStats, opts HistoryOptions) error {
	first := "date"
	if opts.Weekly {
		first = "week"
	}
	cw := csv.NewWriter(w)
	header := []string{
		first,
		"added_blank", "added_comment", "added_code",
		"deleted_blank", "deleted_comment", "deleted_code",
		"net_code",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range opts.TimeSeries(h) {
		row := []string{
			d.Date.String(),
			strconv.Itoa(d.Additions.Blank),
			strconv.Itoa(d.Additions.Comment),
			strconv.Itoa(d.Additions.Code),
			strconv.Itoa(d.Deletions.Blank),
			strconv.Itoa(d.Deletions.Comment),
			strconv.Itoa(d.Deletions.Code),
			strconv.FormatInt(d.NetCode, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
