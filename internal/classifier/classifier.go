// Package classifier sorts source lines into blank, comment and code.
//
// A line is blank when it only holds whitespace, comment when every
// non-whitespace character belongs to a comment (a line comment, a block
// comment or a docstring span) and code otherwise. A line mixing code and
// comments counts as code.
package classifier

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/model"
)

// State carries block comment and multi-line string tracking from one
// line to the next.
type State struct {
	pair  *language.CommentPair
	depth int
	quote string
}

// InComment reports whether the next line starts inside a block comment.
func (s *State) InComment() bool {
	return s.depth > 0
}

// InString reports whether the next line starts inside a raw string or
// template literal.
func (s *State) InString() bool {
	return s.quote != ""
}

// Reset clears the state.
func (s *State) Reset() {
	s.pair = nil
	s.depth = 0
	s.quote = ""
}

// Classifier classifies the lines of one language.
type Classifier struct {
	lang   *language.Language
	blocks []language.CommentPair
	lines  []string
	quotes []string
}

// New returns a Classifier for lang.
func New(lang *language.Language) *Classifier {
	c := &Classifier{lang: lang}
	c.blocks = append(c.blocks, lang.BlockComments...)
	c.lines = append(c.lines, lang.LineComments...)
	c.quotes = append(c.quotes, lang.Quotes...)
	// Longest delimiters first so that "--[[" wins over "--" and `"""` over `"`.
	sort.SliceStable(c.blocks, func(i, j int) bool { return len(c.blocks[i].Start) > len(c.blocks[j].Start) })
	sort.SliceStable(c.lines, func(i, j int) bool { return len(c.lines[i]) > len(c.lines[j]) })
	sort.SliceStable(c.quotes, func(i, j int) bool { return len(c.quotes[i]) > len(c.quotes[j]) })
	return c
}

// ClassifyLine classifies a single line and updates st.
func (c *Classifier) ClassifyLine(line string, st *State) model.LineType {
	if strings.TrimSpace(line) == "" {
		return model.LineBlank
	}

	// A line that opens inside a string is code.
	hasCode, hasComment := st.quote != "", false

	for i := 0; i < len(line); {
		rest := line[i:]

		if st.depth > 0 {
			hasComment = true
			p := st.pair
			if c.lang.Nested && p.Start != p.End && strings.HasPrefix(rest, p.Start) {
				st.depth++
				i += len(p.Start)
				continue
			}
			if strings.HasPrefix(rest, p.End) {
				st.depth--
				if st.depth == 0 {
					st.pair = nil
				}
				i += len(p.End)
				continue
			}
			i++
			continue
		}

		if st.quote != "" {
			switch {
			case rest[0] == '\\' && st.quote != "`":
				i += 2
			case strings.HasPrefix(rest, st.quote):
				i += len(st.quote)
				st.quote = ""
			default:
				i++
			}
			continue
		}

		if isSpace(rest[0]) {
			i++
			continue
		}

		if p := c.blockStart(rest); p != nil {
			st.pair = p
			st.depth = 1
			hasComment = true
			i += len(p.Start)
			continue
		}
		if c.lineStart(rest) {
			hasComment = true
			break
		}
		if c.lang.CharLiterals && rest[0] == '\'' {
			hasCode = true
			i += charLiteralLen(rest)
			continue
		}
		if q := c.quoteStart(rest); q != "" {
			st.quote = q
			hasCode = true
			i += len(q)
			continue
		}

		hasCode = true
		i++
	}

	if st.quote != "" && !spansLines(st.quote) {
		st.quote = ""
	}

	if hasCode || !hasComment {
		return model.LineCode
	}
	return model.LineComment
}

// ClassifyLines classifies every line of a file. A "#!" first line is code.
func (c *Classifier) ClassifyLines(lines []string) ([]model.LineType, model.FileStats) {
	var (
		st    State
		stats model.FileStats
	)
	types := make([]model.LineType, len(lines))
	for i, l := range lines {
		var t model.LineType
		if i == 0 && strings.HasPrefix(strings.TrimSpace(l), "#!") {
			t = model.LineCode
		} else {
			t = c.ClassifyLine(l, &st)
		}
		types[i] = t
		stats.Count(t)
	}
	return types, stats
}

func (c *Classifier) blockStart(s string) *language.CommentPair {
	for i := range c.blocks {
		if strings.HasPrefix(s, c.blocks[i].Start) {
			return &c.blocks[i]
		}
	}
	return nil
}

func (c *Classifier) lineStart(s string) bool {
	for _, m := range c.lines {
		if strings.HasPrefix(s, m) {
			return true
		}
	}
	return false
}

func (c *Classifier) quoteStart(s string) string {
	for _, q := range c.quotes {
		if strings.HasPrefix(s, q) {
			return q
		}
	}
	return ""
}

// spansLines reports whether an unterminated q continues on the next line:
// backtick raw strings and template literals, and triple-quoted strings.
// Ordinary quotes end with the line.
func spansLines(q string) bool {
	return q == "`" || len(q) > 1
}

// charLiteralLen returns the length of the char literal at the start of s
// ('x', '\n', '\u{1F600}'), or 1 when the quote opens a lifetime or label
// such as 'a.
func charLiteralLen(s string) int {
	if len(s) >= 3 && s[1] == '\\' {
		if j := strings.IndexByte(s[3:], '\''); j >= 0 {
			return 3 + j + 1
		}
		return 1
	}
	_, size := utf8.DecodeRuneInString(s[1:])
	if size > 0 && 1+size < len(s) && s[1+size] == '\'' {
		return 2 + size
	}
	return 1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == '\v'
}

var diffCommentPrefixes = []string{"//", "#", "--", "/*", "*/", "*", "<!--", "-->"}

// ClassifyDiffLine classifies a line without language or multi-line
// context, as needed for lines taken out of a diff.
func ClassifyDiffLine(text string) model.LineType {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.LineBlank
	}
	for _, p := range diffCommentPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return model.LineComment
		}
	}
	return model.LineCode
}
