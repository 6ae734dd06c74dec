package language

import (
	"path/filepath"
	"sort"
	"strings"
)

// CommentPair is a pair of block comment delimiters.
type CommentPair struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Language describes the comment syntax of a programming language.
type Language struct {
	Name          string        `yaml:"name" json:"name"`
	Extensions    []string      `yaml:"extensions" json:"extensions"`
	LineComments  []string      `yaml:"line_comments" json:"lineComments,omitempty"`
	BlockComments []CommentPair `yaml:"block_comments" json:"blockComments,omitempty"`
	Quotes        []string      `yaml:"quotes" json:"quotes,omitempty"`
	Nested        bool          `yaml:"nested" json:"nested,omitempty"`
	CharLiterals  bool          `yaml:"char_literals" json:"charLiterals,omitempty"` // 'x' literals next to 'a lifetimes
}

var (
	cStyle   = []CommentPair{{Start: "/*", End: "*/"}}
	markup   = []CommentPair{{Start: "<!--", End: "-->"}}
	slashes  = []string{"//"}
	hash     = []string{"#"}
	dashes   = []string{"--"}
	dq       = []string{`"`}
	dqSq     = []string{`"`, `'`}
	dqSqTick = []string{`"`, `'`, "`"}
	dqTick   = []string{`"`, "`"}
	dqTriple = []string{`"""`, `"`}
)

var builtin = []Language{
	{Name: "JavaScript", Extensions: []string{"js", "jsx", "mjs", "cjs"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSqTick},
	{Name: "TypeScript", Extensions: []string{"ts", "tsx"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSqTick},
	{
		Name:          "Python",
		Extensions:    []string{"py", "pyw"},
		LineComments:  hash,
		BlockComments: []CommentPair{{Start: `"""`, End: `"""`}, {Start: "'''", End: "'''"}},
		Quotes:        dqSq,
	},
	{Name: "Rust", Extensions: []string{"rs"}, LineComments: []string{"//", "///", "//!"}, BlockComments: cStyle, Quotes: dq, Nested: true, CharLiterals: true},
	{Name: "Go", Extensions: []string{"go"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqTick},
	{Name: "Java", Extensions: []string{"java"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSq},
	{Name: "C", Extensions: []string{"c", "h"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSq},
	{Name: "C++", Extensions: []string{"cpp", "cc", "cxx", "hpp", "hxx", "hh"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSq},
	{Name: "C#", Extensions: []string{"cs"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSq},
	{Name: "Ruby", Extensions: []string{"rb"}, LineComments: hash, BlockComments: []CommentPair{{Start: "=begin", End: "=end"}}, Quotes: dqSq},
	{Name: "Shell", Extensions: []string{"sh", "bash", "zsh"}, LineComments: hash, Quotes: dqSq},
	{Name: "HTML", Extensions: []string{"html", "htm"}, BlockComments: markup, Quotes: dqSq},
	{Name: "CSS", Extensions: []string{"css"}, BlockComments: cStyle, Quotes: dqSq},
	{Name: "SCSS", Extensions: []string{"scss"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSq},
	{Name: "Sass", Extensions: []string{"sass"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqSq},
	{Name: "Markdown", Extensions: []string{"md", "markdown"}, BlockComments: markup},
	{Name: "JSON", Extensions: []string{"json"}, Quotes: dq},
	{Name: "YAML", Extensions: []string{"yaml", "yml"}, LineComments: hash, Quotes: dqSq},
	{Name: "XML", Extensions: []string{"xml"}, BlockComments: markup, Quotes: dqSq},
	{Name: "PHP", Extensions: []string{"php"}, LineComments: []string{"//", "#"}, BlockComments: cStyle, Quotes: dqSq},
	{Name: "Kotlin", Extensions: []string{"kt", "kts"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqTriple, Nested: true},
	{Name: "Swift", Extensions: []string{"swift"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqTriple, Nested: true},
	{Name: "Scala", Extensions: []string{"scala"}, LineComments: slashes, BlockComments: cStyle, Quotes: dqTriple, Nested: true},
	{Name: "Elixir", Extensions: []string{"ex", "exs"}, LineComments: hash, Quotes: dq},
	{Name: "Erlang", Extensions: []string{"erl", "hrl"}, LineComments: []string{"%"}, Quotes: dq},
	{Name: "Haskell", Extensions: []string{"hs", "lhs"}, LineComments: dashes, BlockComments: []CommentPair{{Start: "{-", End: "-}"}}, Quotes: dq, Nested: true},
	{Name: "Lua", Extensions: []string{"lua"}, LineComments: dashes, BlockComments: []CommentPair{{Start: "--[[", End: "]]"}}, Quotes: dqSq},
	{Name: "Perl", Extensions: []string{"pl", "pm"}, LineComments: hash, BlockComments: []CommentPair{{Start: "=pod", End: "=cut"}}, Quotes: dqSq},
	{Name: "R", Extensions: []string{"r"}, LineComments: hash, Quotes: dqSq},
	{Name: "SQL", Extensions: []string{"sql"}, LineComments: dashes, BlockComments: cStyle, Quotes: []string{`'`}},
	{Name: "TOML", Extensions: []string{"toml"}, LineComments: hash, Quotes: dqSq},
	{Name: "INI", Extensions: []string{"ini", "cfg"}, LineComments: []string{";", "#"}},
	{Name: "Vim Script", Extensions: []string{"vim"}, LineComments: []string{`"`}},
}

// interpreters maps shebang interpreter names to language names.
var interpreters = map[string]string{
	"python":  "Python",
	"python2": "Python",
	"python3": "Python",
	"node":    "JavaScript",
	"deno":    "TypeScript",
	"sh":      "Shell",
	"bash":    "Shell",
	"zsh":     "Shell",
	"ruby":    "Ruby",
	"perl":    "Perl",
	"lua":     "Lua",
	"php":     "PHP",
	"elixir":  "Elixir",
	"Rscript": "R",
}

// Builtin returns a copy of the built-in language table.
func Builtin() []Language {
	out := make([]Language, len(builtin))
	copy(out, builtin)
	return out
}

// Detector maps file extensions to languages.
type Detector struct {
	byExt  map[string]*Language
	byName map[string]*Language
}

// NewDetector creates a Detector with the built-in languages. Extra
// languages are applied afterwards: a language with an existing name
// replaces it, and its extensions win over the built-in mapping.
func NewDetector(extra ...Language) *Detector {
	d := &Detector{
		byExt:  make(map[string]*Language),
		byName: make(map[string]*Language),
	}
	for _, l := range Builtin() {
		d.add(l)
	}
	for _, l := range extra {
		d.add(l)
	}
	return d
}

func (d *Detector) add(l Language) {
	if old, ok := d.byName[l.Name]; ok {
		for _, ext := range old.Extensions {
			if d.byExt[ext] == old {
				delete(d.byExt, ext)
			}
		}
	}
	lang := l
	lang.Extensions = make([]string, 0, len(l.Extensions))
	for _, ext := range l.Extensions {
		lang.Extensions = append(lang.Extensions, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	d.byName[lang.Name] = &lang
	for _, ext := range lang.Extensions {
		d.byExt[ext] = &lang
	}
}

// Detect returns the language of path based on its extension, or nil.
func (d *Detector) Detect(path string) *Language {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil
	}
	return d.byExt[strings.ToLower(ext[1:])]
}

// DetectShebang returns the language named by a "#!" interpreter line, or nil.
func (d *Detector) DetectShebang(line string) *Language {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "#!")
	if !ok {
		return nil
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	interp := filepath.Base(fields[0])
	if interp == "env" {
		args := fields[1:]
		for len(args) > 0 && strings.HasPrefix(args[0], "-") {
			args = args[1:]
		}
		if len(args) == 0 {
			return nil
		}
		interp = filepath.Base(args[0])
	}
	name, ok := interpreters[interp]
	if !ok {
		return nil
	}
	return d.byName[name]
}

// Lookup returns the language with the given name, or nil.
func (d *Detector) Lookup(name string) *Language {
	return d.byName[name]
}

// All returns every known language sorted by name.
func (d *Detector) All() []*Language {
	out := make([]*Language, 0, len(d.byName))
	for _, l := range d.byName {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
