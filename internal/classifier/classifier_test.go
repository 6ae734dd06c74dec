package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/model"
)

func forLang(t *testing.T, name string) *Classifier {
	t.Helper()
	l := language.NewDetector().Lookup(name)
	require.NotNil(t, l, "language %s", name)
	return New(l)
}

func split(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

const simpleRust = `// Simple Rust file for testing
// This file has known line counts

use std::collections::HashMap;

fn main() {
    let mut map = HashMap::new();
    map.insert("hello", "world");

    println!("Hello, world!");
}

// Expected counts:
// Blank: 2
// Comment: 4
// Code: 6
// Total: 12
`

const simplePython = `#!/usr/bin/env python3
# Simple Python script for testing
"""
This is a docstring
spanning multiple lines
"""

def greet(name):
    # This is a comment
    return f"Hello, {name}!"


if __name__ == "__main__":
    print(greet("World"))

`

func TestClassifyFiles(t *testing.T) {
	tests := []struct {
		name string
		lang string
		src  string
		want model.FileStats
	}{
		{
			name: "rust file including its annotation block",
			lang: "Rust",
			src:  simpleRust,
			want: model.FileStats{Blank: 4, Comment: 7, Code: 6},
		},
		{
			name: "python with shebang and docstring",
			lang: "Python",
			src:  simplePython,
			want: model.FileStats{Blank: 4, Comment: 6, Code: 5},
		},
		{
			name: "inline and trailing comments are code",
			lang: "Rust",
			src: `// Comment at start
fn calculate(x: i32) -> i32 { // Inline comment

    /* Block comment */ let y = x * 2; // More inline

    y + 1 // Result
} // End function
`,
			want: model.FileStats{Blank: 2, Comment: 1, Code: 4},
		},
		{
			name: "rust block comments nest",
			lang: "Rust",
			src: `/* Rust supports truly nested comments! */

fn main() {
    /* Outer comment
       /* This is nested inside */
       Still in outer comment
    */
    let x = 5; // After nested comment block
}
`,
			want: model.FileStats{Blank: 1, Comment: 5, Code: 3},
		},
		{
			name: "c block comments do not nest",
			lang: "C",
			src: `/* This is C code that tests nested comments */
/* Outer comment /* This won't nest in C */ still code */

int main() {
    /* Another comment */
    return 0;
}
`,
			want: model.FileStats{Blank: 1, Comment: 2, Code: 4},
		},
		{
			name: "blank lines inside a block comment stay blank",
			lang: "Go",
			src: `/*
Package doc

more doc
*/
package main
`,
			want: model.FileStats{Blank: 1, Comment: 4, Code: 1},
		},
		{
			name: "comment markers inside strings",
			lang: "Go",
			src: "s := \"/* not a comment\"\nu := \"http://example.com\"\n// real comment\nr := `raw // string`\n",
			want: model.FileStats{Comment: 1, Code: 3},
		},
		{
			name: "escaped quote keeps the string open",
			lang: "JavaScript",
			src:  "const s = \"a \\\" /* b\";\n// after\n",
			want: model.FileStats{Comment: 1, Code: 1},
		},
		{
			name: "lua long comment wins over line comment",
			lang: "Lua",
			src:  "--[[ start\nstill comment\n]]\nprint('x') -- trailing\n-- single\n",
			want: model.FileStats{Comment: 4, Code: 1},
		},
		{
			name: "html comments",
			lang: "HTML",
			src:  "<!-- header -->\n<div>\n<!--\n  multi\n-->\n</div>\n",
			want: model.FileStats{Comment: 4, Code: 2},
		},
		{
			name: "single line docstring",
			lang: "Python",
			src:  "def f():\n    \"\"\"Return one.\"\"\"\n    return 1\n",
			want: model.FileStats{Comment: 1, Code: 2},
		},
		{
			name: "docstring assigned to a name is code on its first line",
			lang: "Python",
			src:  "x = \"\"\"\ntext\n\"\"\"\n",
			want: model.FileStats{Comment: 2, Code: 1},
		},
		{
			name: "char literal holding a double quote",
			lang: "C",
			src:  "char q = '\"'; /* start\nstill inside\n*/\nint x;\n",
			want: model.FileStats{Comment: 2, Code: 2},
		},
		{
			name: "java char literal before a line comment",
			lang: "Java",
			src:  "char c = '\"';\n// note\n",
			want: model.FileStats{Comment: 1, Code: 1},
		},
		{
			name: "rust char literals and lifetimes",
			lang: "Rust",
			src:  "fn f<'a>(s: &'a str) -> char { '\"' } /* open\nclose */\nlet e = '\\''; // quote\n// done\n",
			want: model.FileStats{Comment: 2, Code: 2},
		},
		{
			name: "template literal spanning lines",
			lang: "JavaScript",
			src:  "const s = `line one\n/* not a comment\n`;\nlet y = 1;\n",
			want: model.FileStats{Code: 4},
		},
		{
			name: "go raw string spanning lines",
			lang: "Go",
			src:  "const usage = `sniffy [path]\n// not a comment\n`\n// real comment\n",
			want: model.FileStats{Comment: 1, Code: 3},
		},
		{
			name: "kotlin triple quoted string",
			lang: "Kotlin",
			src:  "val s = \"\"\"\n/* text\n\"\"\"\n// end\n",
			want: model.FileStats{Comment: 1, Code: 3},
		},
		{
			name: "no comment syntax",
			lang: "JSON",
			src:  "{\n  \"a\": \"// b\"\n}\n",
			want: model.FileStats{Code: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := forLang(t, tt.lang)
			lines := split(tt.src)
			types, stats := c.ClassifyLines(lines)

			assert.Equal(t, tt.want, stats)
			assert.Len(t, types, len(lines))
			assert.Equal(t, len(lines), stats.Total(), "blank+comment+code must equal the line count")
		})
	}
}

func TestClassifyLinesIsIdempotent(t *testing.T) {
	c := forLang(t, "Python")
	lines := split(simplePython)

	firstTypes, first := c.ClassifyLines(lines)
	for i := 0; i < 5; i++ {
		types, stats := c.ClassifyLines(lines)
		require.Equal(t, first, stats)
		require.Equal(t, firstTypes, types)
	}
}

func TestClassifyLineState(t *testing.T) {
	c := forLang(t, "C")
	var st State

	assert.Equal(t, model.LineComment, c.ClassifyLine("/* open", &st))
	assert.True(t, st.InComment())
	assert.Equal(t, model.LineBlank, c.ClassifyLine("   ", &st))
	assert.True(t, st.InComment(), "blank lines keep the comment open")
	assert.Equal(t, model.LineCode, c.ClassifyLine("close */ int x;", &st))
	assert.False(t, st.InComment())

	c.ClassifyLine("/* again", &st)
	st.Reset()
	assert.False(t, st.InComment())
	assert.Equal(t, model.LineCode, c.ClassifyLine("int y;", &st))
}

func TestClassifyLineStringState(t *testing.T) {
	c := forLang(t, "JavaScript")
	var st State

	assert.Equal(t, model.LineCode, c.ClassifyLine("const s = `open", &st))
	assert.True(t, st.InString())
	assert.Equal(t, model.LineCode, c.ClassifyLine("// inside the literal", &st))
	assert.True(t, st.InString())
	assert.Equal(t, model.LineCode, c.ClassifyLine("`;", &st))
	assert.False(t, st.InString())

	c.ClassifyLine("let t = `again", &st)
	st.Reset()
	assert.False(t, st.InString())
	assert.Equal(t, model.LineComment, c.ClassifyLine("// comment", &st))

	// An unterminated ordinary quote ends with the line.
	c.ClassifyLine(`let u = "broken`, &st)
	assert.False(t, st.InString())
}

func TestClassifyLinesCharLiteral(t *testing.T) {
	c := forLang(t, "C")
	types, _ := c.ClassifyLines([]string{`char q = '"'; /* start`, "still inside", "*/", "int x;"})
	assert.Equal(t, []model.LineType{model.LineCode, model.LineComment, model.LineComment, model.LineCode}, types)
}

func TestShebangOnlyOnFirstLine(t *testing.T) {
	c := forLang(t, "Shell")
	types, stats := c.ClassifyLines([]string{"#!/bin/sh", "#!not a shebang here", "echo hi"})
	assert.Equal(t, []model.LineType{model.LineCode, model.LineComment, model.LineCode}, types)
	assert.Equal(t, model.FileStats{Comment: 1, Code: 2}, stats)
}

func TestClassifyDiffLine(t *testing.T) {
	tests := []struct {
		in   string
		want model.LineType
	}{
		{"", model.LineBlank},
		{"   ", model.LineBlank},
		{"\t\t", model.LineBlank},
		{"// comment", model.LineComment},
		{"# comment", model.LineComment},
		{"/* comment", model.LineComment},
		{" * continued", model.LineComment},
		{"-- SQL comment", model.LineComment},
		{"<!-- html -->", model.LineComment},
		{"let x = 5;", model.LineCode},
		{"fn main() {", model.LineCode},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyDiffLine(tt.in), "line %q", tt.in)
	}
}

func TestLineSpans(t *testing.T) {
	tests := []struct {
		in   string
		want [][2]int
	}{
		{"", nil},
		{"a", [][2]int{{0, 1}}},
		{"a\n", [][2]int{{0, 1}}},
		{"a\r\nbc\n\n", [][2]int{{0, 1}, {3, 5}, {6, 6}}},
		{"a\nb", [][2]int{{0, 1}, {2, 3}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LineSpans([]byte(tt.in)), "input %q", tt.in)
	}
}

func TestExact(t *testing.T) {
	tests := []struct {
		name string
		lang string
		path string
		src  string
		want model.FileStats
	}{
		{
			name: "go",
			lang: "Go",
			path: "main.go",
			src:  "// Package main.\npackage main\n\n/* block\n   still */\nvar s = \"// not a comment\"\nfunc main() {} // trailing\n",
			want: model.FileStats{Blank: 1, Comment: 3, Code: 3},
		},
		{
			name: "python docstrings and shebang",
			lang: "Python",
			path: "script.py",
			src:  simplePython,
			want: model.FileStats{Blank: 4, Comment: 6, Code: 5},
		},
		{
			name: "rust doc comments",
			lang: "Rust",
			path: "lib.rs",
			src:  "//! crate doc\n/// item doc\nfn f() {}\n",
			want: model.FileStats{Comment: 2, Code: 1},
		},
		{
			name: "tsx",
			lang: "TypeScript",
			path: "App.tsx",
			src:  "// component\nexport const App = () => <div>{/* jsx comment */}</div>;\n",
			want: model.FileStats{Comment: 1, Code: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, stats, err := Exact(context.Background(), tt.lang, tt.path, []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats)
			assert.Len(t, types, stats.Total())
		})
	}
}

func TestExactUnsupported(t *testing.T) {
	_, _, err := Exact(context.Background(), "Haskell", "main.hs", []byte("main = pure ()\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.False(t, SupportsExact("Haskell"))
	assert.True(t, SupportsExact("Go"))
}
