package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	time.Time
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// weekStart returns the Monday of the ISO week containing d.
func (d Date) weekStart() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return Date{d.AddDate(0, 0, -offset)}
}

// DailyStats holds line changes for one period (a day, or a week after
// aggregation).
type DailyStats struct {
	Date      Date      `json:"date"`
	Additions FileStats `json:"additions"`
	Deletions FileStats `json:"deletions"`
	NetCode   int64     `json:"net_code"`
}

// Record adds one commit's additions and deletions to the period.
func (d *DailyStats) Record(added, deleted FileStats) {
	d.Additions = d.Additions.Add(added)
	d.Deletions = d.Deletions.Add(deleted)
	d.NetCode += int64(added.Code) - int64(deleted.Code)
}

// AuthorStats is one contributor's share of the added lines.
type AuthorStats struct {
	Author string    `json:"author"`
	Stats  FileStats `json:"stats"`
}

// HistoricalStats is the result of walking a repository history.
type HistoricalStats struct {
	Daily        []DailyStats         `json:"daily"`
	ByAuthor     map[string]FileStats `json:"by_author"`
	TotalCommits int                  `json:"total_commits"`
}

// NewHistoricalStats returns empty statistics.
func NewHistoricalStats() *HistoricalStats {
	return &HistoricalStats{ByAuthor: make(map[string]FileStats)}
}

// AggregateByWeek folds the daily statistics into ISO weeks, each keyed by
// its Monday. The result is sorted most recent first.
func (h *HistoricalStats) AggregateByWeek() []DailyStats {
	if len(h.Daily) == 0 {
		return nil
	}

	weeks := make(map[Date]*DailyStats)
	for _, day := range h.Daily {
		key := day.Date.weekStart()
		w, ok := weeks[key]
		if !ok {
			w = &DailyStats{Date: key}
			weeks[key] = w
		}
		w.Additions = w.Additions.Add(day.Additions)
		w.Deletions = w.Deletions.Add(day.Deletions)
		w.NetCode += day.NetCode
	}

	out := make([]DailyStats, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, *w)
	}
	SortRecentFirst(out)
	return out
}

// FilterAuthor returns a copy of h whose author table only keeps names
// containing substr. The time series and commit count are left untouched.
func (h *HistoricalStats) FilterAuthor(substr string) *HistoricalStats {
	out := &HistoricalStats{
		Daily:        h.Daily,
		ByAuthor:     make(map[string]FileStats),
		TotalCommits: h.TotalCommits,
	}
	for name, s := range h.ByAuthor {
		if strings.Contains(name, substr) {
			out.ByAuthor[name] = s
		}
	}
	return out
}

// TopAuthors returns up to n authors ordered by total lines added (blank,
// comment and code), then by name.
// n <= 0 returns every author.
func (h *HistoricalStats) TopAuthors(n int) []AuthorStats {
	out := make([]AuthorStats, 0, len(h.ByAuthor))
	for name, s := range h.ByAuthor {
		out = append(out, AuthorStats{Author: name, Stats: s})
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Stats.Total(), out[j].Stats.Total()
		if ti != tj {
			return ti > tj
		}
		return out[i].Author < out[j].Author
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SortRecentFirst sorts a time series by date, most recent first.
func SortRecentFirst(series []DailyStats) {
	sort.Slice(series, func(i, j int) bool { return series[i].Date.After(series[j].Date.Time) })
}
