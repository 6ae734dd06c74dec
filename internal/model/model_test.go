package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFileStatsTotal(t *testing.T) {
	s := FileStats{Blank: 10, Comment: 20, Code: 70}
	if s.Total() != 100 {
		t.Errorf("expected Total=100, got %d", s.Total())
	}
}

func TestFileStatsAdd(t *testing.T) {
	a := FileStats{Blank: 10, Comment: 20, Code: 30}
	b := FileStats{Blank: 5, Comment: 15, Code: 25}
	got := a.Add(b)
	want := FileStats{Blank: 15, Comment: 35, Code: 55}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFileStatsCount(t *testing.T) {
	var s FileStats
	for _, lt := range []LineType{LineBlank, LineCode, LineComment, LineCode} {
		s.Count(lt)
	}
	if s != (FileStats{Blank: 1, Comment: 1, Code: 2}) {
		t.Errorf("unexpected counts %+v", s)
	}
}

func TestProjectStats(t *testing.T) {
	p := NewProjectStats()
	p.AddFile("Rust", FileStats{Blank: 10, Comment: 20, Code: 70})
	p.AddFile("Rust", FileStats{Blank: 5, Comment: 10, Code: 35})
	p.AddFile("Python", FileStats{Blank: 5, Comment: 10, Code: 35})
	p.AddFile("JavaScript", FileStats{})

	rust, ok := p.Language("Rust")
	if !ok {
		t.Fatal("expected Rust stats")
	}
	if rust.Files != 2 || rust.Stats != (FileStats{Blank: 15, Comment: 30, Code: 105}) {
		t.Errorf("unexpected Rust stats %+v", rust)
	}

	files, total := p.Total()
	if files != 4 {
		t.Errorf("expected 4 files, got %d", files)
	}
	if total != (FileStats{Blank: 20, Comment: 40, Code: 140}) {
		t.Errorf("unexpected total %+v", total)
	}

	var names []string
	for _, ls := range p.Languages() {
		names = append(names, ls.Language)
	}
	if diff := cmp.Diff([]string{"JavaScript", "Python", "Rust"}, names); diff != "" {
		t.Errorf("languages not sorted (-want +got):\n%s", diff)
	}
}

func TestProjectStatsMerge(t *testing.T) {
	a := NewProjectStats()
	a.AddFile("Go", FileStats{Code: 10})
	b := NewProjectStats()
	b.AddFile("Go", FileStats{Code: 5, Blank: 1})
	b.AddFile("C", FileStats{Comment: 3})

	a.Merge(b)
	a.Merge(nil)

	goStats, _ := a.Language("Go")
	if goStats.Files != 2 || goStats.Stats != (FileStats{Code: 15, Blank: 1}) {
		t.Errorf("unexpected Go stats after merge %+v", goStats)
	}
	if a.Len() != 2 {
		t.Errorf("expected 2 languages, got %d", a.Len())
	}
}

func day(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAggregateByWeek(t *testing.T) {
	h := NewHistoricalStats()
	// 2025-01-06 is a Monday, 2025-01-12 the Sunday of the same ISO week.
	h.Daily = []DailyStats{
		{Date: day("2025-01-13"), Additions: FileStats{Code: 1}, NetCode: 1},
		{Date: day("2025-01-12"), Additions: FileStats{Code: 4}, Deletions: FileStats{Code: 1}, NetCode: 3},
		{Date: day("2025-01-06"), Additions: FileStats{Code: 2, Comment: 1}, NetCode: 2},
		{Date: day("2024-12-31"), Deletions: FileStats{Code: 5}, NetCode: -5},
	}

	weeks := h.AggregateByWeek()
	want := []DailyStats{
		{Date: day("2025-01-13"), Additions: FileStats{Code: 1}, NetCode: 1},
		{Date: day("2025-01-06"), Additions: FileStats{Code: 6, Comment: 1}, Deletions: FileStats{Code: 1}, NetCode: 5},
		{Date: day("2024-12-30"), Deletions: FileStats{Code: 5}, NetCode: -5},
	}
	if diff := cmp.Diff(want, weeks); diff != "" {
		t.Errorf("weekly aggregation mismatch (-want +got):\n%s", diff)
	}

	if got := NewHistoricalStats().AggregateByWeek(); len(got) != 0 {
		t.Errorf("expected no weeks for empty history, got %d", len(got))
	}
}

func TestDailyStatsRecord(t *testing.T) {
	var d DailyStats
	d.Record(FileStats{Code: 10, Comment: 2}, FileStats{Code: 3, Blank: 1})
	d.Record(FileStats{Code: 1}, FileStats{Code: 4})
	if d.NetCode != 4 {
		t.Errorf("expected net code 4, got %d", d.NetCode)
	}
	if d.Additions.Code != 11 || d.Deletions.Code != 7 {
		t.Errorf("unexpected totals %+v", d)
	}
}

func TestFilterAndTopAuthors(t *testing.T) {
	h := NewHistoricalStats()
	h.TotalCommits = 3
	h.ByAuthor["Alice Smith"] = FileStats{Code: 10}
	h.ByAuthor["Bob"] = FileStats{Code: 30}
	h.ByAuthor["Alicia"] = FileStats{Code: 10}

	top := h.TopAuthors(2)
	if len(top) != 2 || top[0].Author != "Bob" || top[1].Author != "Alice Smith" {
		t.Errorf("unexpected top authors %+v", top)
	}

	f := h.FilterAuthor("Alic")
	if len(f.ByAuthor) != 2 {
		t.Errorf("expected 2 authors after filter, got %d", len(f.ByAuthor))
	}
	if f.TotalCommits != 3 {
		t.Errorf("filter should keep the commit count, got %d", f.TotalCommits)
	}
}

func TestTopAuthorsOrdersByTotalLines(t *testing.T) {
	h := NewHistoricalStats()
	h.ByAuthor["coder"] = FileStats{Code: 20}
	h.ByAuthor["writer"] = FileStats{Code: 5, Comment: 30, Blank: 5}
	h.ByAuthor["tied"] = FileStats{Code: 20}

	got := make([]string, 0, 3)
	for _, a := range h.TopAuthors(0) {
		got = append(got, a.Author)
	}
	want := []string{"writer", "coder", "tied"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("author order mismatch (-want +got):\n%s", diff)
	}
}

func TestDateJSON(t *testing.T) {
	d := DateOf(time.Date(2025, 3, 4, 23, 59, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `"2025-03-04"` {
		t.Errorf("unexpected JSON %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("expected %s, got %s", d, back)
	}
}

func TestLineTypeString(t *testing.T) {
	if LineBlank.String() != "blank" || LineComment.String() != "comment" || LineCode.String() != "code" {
		t.Error("unexpected line type names")
	}
}
