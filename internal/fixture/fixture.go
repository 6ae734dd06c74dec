// Package fixture reads annotated sample files and checks a classifier
// against the counts they declare.
//
// A fixture ends with a comment block such as
//
//	# Expected counts:
//	# Blank: 3
//	# Comment: 6 (shebang is code)
//	# Code: 6
//	# Total: 15
//
// Any single-line comment marker may be used. Text after the number is
// ignored. The lines before the block are the fixture content.
package fixture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/chmouel/sniffy/internal/model"
)

var (
	// ErrNoAnnotation is returned when no "Expected counts:" line exists.
	ErrNoAnnotation = errors.New("no expected counts annotation")
	// ErrMissingCount is returned when a category is absent from the block.
	ErrMissingCount = errors.New("missing expected count")
	// ErrInconsistent is returned by Validate when the counts contradict
	// each other or the content.
	ErrInconsistent = errors.New("inconsistent expected counts")
)

// Markers are the line comment markers recognised in annotation blocks.
var Markers = []string{"//", "#", "--", ";", "%"}

// Categories in reporting order.
var Categories = []string{"Blank", "Comment", "Code", "Total"}

var (
	headerRe = regexp.MustCompile(`^Expected counts:\s*$`)
	countRe  = regexp.MustCompile(`^(Blank|Comment|Code|Total):\s*(\d+)`)
)

// Counts holds a classification summary.
type Counts struct {
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
	Total   int `json:"total"`
}

// CountsOf converts file statistics to Counts.
func CountsOf(s model.FileStats) Counts {
	return Counts{Blank: s.Blank, Comment: s.Comment, Code: s.Code, Total: s.Total()}
}

// Get returns the count for a category name.
func (c Counts) Get(category string) int {
	switch category {
	case "Blank":
		return c.Blank
	case "Comment":
		return c.Comment
	case "Code":
		return c.Code
	case "Total":
		return c.Total
	}
	return 0
}

func (c *Counts) set(category string, n int) {
	switch category {
	case "Blank":
		c.Blank = n
	case "Comment":
		c.Comment = n
	case "Code":
		c.Code = n
	case "Total":
		c.Total = n
	}
}

// Fixture is an annotated sample file. It is never modified after Parse.
type Fixture struct {
	Path     string
	Content  []string
	Expected Counts
}

// Load reads the fixture at path.
func Load(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse reads a fixture. name is used as its Path.
func Parse(name string, r io.Reader) (*Fixture, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	start := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if text, ok := stripMarker(lines[i]); ok && headerRe.MatchString(text) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoAnnotation)
	}

	fx := &Fixture{Path: name, Content: lines[:start]}
	found := map[string]bool{}
	for _, l := range lines[start+1:] {
		text, ok := stripMarker(l)
		if !ok {
			continue
		}
		m := countRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%s: %s count %q: %w", name, m[1], m[2], err)
		}
		fx.Expected.set(m[1], n)
		found[m[1]] = true
	}
	for _, c := range Categories {
		if !found[c] {
			return nil, fmt.Errorf("%s: %s: %w", name, c, ErrMissingCount)
		}
	}
	return fx, nil
}

// stripMarker removes a leading line comment marker and the whitespace
// around it.
func stripMarker(line string) (string, bool) {
	s := strings.TrimSpace(line)
	for _, m := range Markers {
		if rest, ok := strings.CutPrefix(s, m); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// Validate checks that Total is the sum of the categories and the number
// of content lines.
func (f *Fixture) Validate() error {
	e := f.Expected
	if sum := e.Blank + e.Comment + e.Code; sum != e.Total {
		return fmt.Errorf("%s: blank+comment+code = %d but total is %d: %w", f.Path, sum, e.Total, ErrInconsistent)
	}
	if len(f.Content) != e.Total {
		return fmt.Errorf("%s: %d content lines but total is %d: %w", f.Path, len(f.Content), e.Total, ErrInconsistent)
	}
	return nil
}

// Mismatch is one category where the classifier disagrees with the
// annotation.
type Mismatch struct {
	Category string `json:"category"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %d, got %d", m.Category, m.Expected, m.Actual)
}

// Outcome is the result of verifying one fixture.
type Outcome struct {
	Fixture    *Fixture
	Actual     Counts
	Mismatches []Mismatch
}

// Passed reports whether every category matched.
func (o Outcome) Passed() bool {
	return len(o.Mismatches) == 0
}

// ClassifyFunc classifies the content lines of the fixture at path.
type ClassifyFunc func(path string, lines []string) (model.FileStats, error)

// Verify classifies the fixture content and compares the result with the
// expected counts, reporting every category that differs.
func Verify(fx *Fixture, classify ClassifyFunc) (Outcome, error) {
	stats, err := classify(fx.Path, fx.Content)
	if err != nil {
		return Outcome{Fixture: fx}, fmt.Errorf("%s: %w", fx.Path, err)
	}
	out := Outcome{Fixture: fx, Actual: CountsOf(stats)}
	for _, c := range Categories {
		if exp, got := fx.Expected.Get(c), out.Actual.Get(c); exp != got {
			out.Mismatches = append(out.Mismatches, Mismatch{Category: c, Expected: exp, Actual: got})
		}
	}
	return out, nil
}
