package classifier

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/chmouel/sniffy/internal/model"
)

// ErrUnsupported is returned by Exact for languages without a grammar.
var ErrUnsupported = errors.New("exact classification not supported")

var commentNodes = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

func grammar(lang, path string) *sitter.Language {
	switch lang {
	case "Go":
		return golang.GetLanguage()
	case "Python":
		return python.GetLanguage()
	case "Rust":
		return rust.GetLanguage()
	case "JavaScript":
		return javascript.GetLanguage()
	case "TypeScript":
		if strings.EqualFold(filepath.Ext(path), ".tsx") {
			return tsx.GetLanguage()
		}
		return typescript.GetLanguage()
	}
	return nil
}

// SupportsExact reports whether Exact can handle lang.
func SupportsExact(lang string) bool {
	return grammar(lang, "") != nil
}

// Exact classifies content using a tree-sitter syntax tree instead of
// delimiter scanning. Comments are taken from the grammar's comment nodes;
// for Python, string expression statements (docstrings) count as comments
// too. It returns one LineType per line as split by LineSpans.
func Exact(ctx context.Context, lang, path string, content []byte) ([]model.LineType, model.FileStats, error) {
	g := grammar(lang, path)
	if g == nil {
		return nil, model.FileStats{}, fmt.Errorf("%s: %w", lang, ErrUnsupported)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, model.FileStats{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	inComment := make([]bool, len(content))
	stack := []*sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if commentNodes[n.Type()] || (lang == "Python" && isDocstring(n)) {
			end := min(int(n.EndByte()), len(content))
			for b := int(n.StartByte()); b < end; b++ {
				inComment[b] = true
			}
			continue
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			stack = append(stack, n.Child(i))
		}
	}

	spans := LineSpans(content)
	types := make([]model.LineType, len(spans))
	var stats model.FileStats
	for i, sp := range spans {
		t := model.LineBlank
		line := content[sp[0]:sp[1]]
		if i == 0 && strings.HasPrefix(strings.TrimSpace(string(line)), "#!") {
			t = model.LineCode
		} else {
			for b := sp[0]; b < sp[1]; b++ {
				if isSpace(content[b]) {
					continue
				}
				if !inComment[b] {
					t = model.LineCode
					break
				}
				t = model.LineComment
			}
		}
		types[i] = t
		stats.Count(t)
	}
	return types, stats, nil
}

func isDocstring(n *sitter.Node) bool {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return false
	}
	switch n.NamedChild(0).Type() {
	case "string", "concatenated_string":
		return true
	}
	return false
}

// LineSpans splits content into lines and returns the [start, end) byte
// offsets of each one, without the line terminator. A trailing newline does
// not start a new line and empty content has no lines.
func LineSpans(content []byte) [][2]int {
	var spans [][2]int
	start := 0
	for i, b := range content {
		if b != '\n' {
			continue
		}
		end := i
		if end > start && content[end-1] == '\r' {
			end--
		}
		spans = append(spans, [2]int{start, end})
		start = i + 1
	}
	if start < len(content) {
		end := len(content)
		if content[end-1] == '\r' {
			end--
		}
		spans = append(spans, [2]int{start, end})
	}
	return spans
}
