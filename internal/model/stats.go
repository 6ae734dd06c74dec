package model

import "sort"

// LineType is the classification of a single source line.
type LineType int

const (
	LineBlank LineType = iota
	LineComment
	LineCode
)

func (t LineType) String() string {
	switch t {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineCode:
		return "code"
	default:
		return "unknown"
	}
}

// FileStats holds line counts for a file or an aggregate of files.
type FileStats struct {
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

// Total returns the number of lines counted.
func (s FileStats) Total() int {
	return s.Blank + s.Comment + s.Code
}

// Add returns the sum of s and o.
func (s FileStats) Add(o FileStats) FileStats {
	return FileStats{
		Blank:   s.Blank + o.Blank,
		Comment: s.Comment + o.Comment,
		Code:    s.Code + o.Code,
	}
}

// Count increments the counter for t.
func (s *FileStats) Count(t LineType) {
	switch t {
	case LineBlank:
		s.Blank++
	case LineComment:
		s.Comment++
	default:
		s.Code++
	}
}

// LanguageStats aggregates the files of one language.
type LanguageStats struct {
	Language string    `json:"language"`
	Files    int       `json:"files"`
	Stats    FileStats `json:"stats"`
}

// ProjectStats aggregates statistics per language. The zero value is not
// usable, use NewProjectStats.
type ProjectStats struct {
	languages map[string]*LanguageStats
}

// NewProjectStats returns an empty ProjectStats.
func NewProjectStats() *ProjectStats {
	return &ProjectStats{languages: make(map[string]*LanguageStats)}
}

// AddFile records one file of the given language.
func (p *ProjectStats) AddFile(language string, stats FileStats) {
	ls, ok := p.languages[language]
	if !ok {
		ls = &LanguageStats{Language: language}
		p.languages[language] = ls
	}
	ls.Files++
	ls.Stats = ls.Stats.Add(stats)
}

// Merge folds other into p.
func (p *ProjectStats) Merge(other *ProjectStats) {
	if other == nil {
		return
	}
	for name, o := range other.languages {
		ls, ok := p.languages[name]
		if !ok {
			ls = &LanguageStats{Language: name}
			p.languages[name] = ls
		}
		ls.Files += o.Files
		ls.Stats = ls.Stats.Add(o.Stats)
	}
}

// Languages returns the per-language statistics sorted by language name.
func (p *ProjectStats) Languages() []LanguageStats {
	out := make([]LanguageStats, 0, len(p.languages))
	for _, ls := range p.languages {
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

// Language returns the statistics of a single language.
func (p *ProjectStats) Language(name string) (LanguageStats, bool) {
	ls, ok := p.languages[name]
	if !ok {
		return LanguageStats{}, false
	}
	return *ls, true
}

// Len returns the number of languages seen.
func (p *ProjectStats) Len() int {
	return len(p.languages)
}

// Total returns the number of files and the summed statistics.
func (p *ProjectStats) Total() (int, FileStats) {
	files := 0
	var total FileStats
	for _, ls := range p.languages {
		files += ls.Files
		total = total.Add(ls.Stats)
	}
	return files, total
}
