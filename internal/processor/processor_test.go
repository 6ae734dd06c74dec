package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/chmouel/sniffy/internal/cache"
	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newProcessor(t *testing.T, opts Options) *Processor {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	return New(language.NewDetector(), opts)
}

func TestIsBinary(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"empty.txt", nil, false},
		{"text.go", []byte("package main\n"), false},
		{"nul.bin", []byte{'a', 0, 'b'}, true},
		{"late-nul.bin", append(make([]byte, binarySniffSize), 0), false},
	}
	for i := range tests[3].content[:binarySniffSize] {
		tests[3].content[i] = 'x'
	}

	for _, tt := range tests {
		p := filepath.Join(dir, tt.name)
		require.NoError(t, os.WriteFile(p, tt.content, 0o644))
		got, err := IsBinary(p)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := IsBinary(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	p := newProcessor(t, Options{})
	ctx := context.Background()

	res, ok := p.ProcessFile(ctx, filepath.Join("testdata", "main.rs"))
	require.True(t, ok)
	assert.Equal(t, "Rust", res.Language)
	assert.Equal(t, model.FileStats{Blank: 4, Comment: 7, Code: 6}, res.Stats)
	assert.Nil(t, res.Lines, "lines are only kept on request")

	res, ok = p.ProcessFile(ctx, filepath.Join("testdata", "deploy"))
	require.True(t, ok, "shebang should identify extension-less scripts")
	assert.Equal(t, "Python", res.Language)
	assert.Equal(t, model.FileStats{Blank: 1, Comment: 1, Code: 3}, res.Stats)

	_, ok = p.ProcessFile(ctx, filepath.Join("testdata", "notes.unknownext"))
	assert.False(t, ok)

	_, ok = p.ProcessFile(ctx, filepath.Join("testdata", "missing.rs"))
	assert.False(t, ok)
}

func TestProcessFileSkipsBinaryAndInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "blob.c")
	require.NoError(t, os.WriteFile(bin, []byte("int x;\x00\x01"), 0o644))
	bad := filepath.Join(dir, "bad.c")
	require.NoError(t, os.WriteFile(bad, []byte("int a;\n// \xff\xfe\nint b;\n"), 0o644))

	p := newProcessor(t, Options{KeepLines: true})
	_, ok := p.ProcessFile(context.Background(), bin)
	assert.False(t, ok)

	res, ok := p.ProcessFile(context.Background(), bad)
	require.True(t, ok)
	assert.Equal(t, model.FileStats{Code: 2}, res.Stats)
	assert.Equal(t, []string{"int a;", "int b;"}, res.Lines)
	assert.Equal(t, []model.LineType{model.LineCode, model.LineCode}, res.Classes)
}

func TestProcessFileKeepLines(t *testing.T) {
	p := newProcessor(t, Options{KeepLines: true})
	res, ok := p.ProcessFile(context.Background(), filepath.Join("testdata", "main.rs"))
	require.True(t, ok)
	require.Len(t, res.Lines, 17)
	require.Len(t, res.Classes, 17)
	assert.Equal(t, model.LineComment, res.Classes[0])
	assert.Equal(t, model.LineBlank, res.Classes[2])
	assert.Equal(t, model.LineCode, res.Classes[3])
}

func TestProcessFileExact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(src, []byte("package a\n\n/* doc\n*/\nvar s = \"/*\"\n"), 0o644))

	p := newProcessor(t, Options{Exact: true})
	res, ok := p.ProcessFile(context.Background(), src)
	require.True(t, ok)
	assert.Equal(t, model.FileStats{Blank: 1, Comment: 2, Code: 2}, res.Stats)

	res, ok = p.ProcessFile(context.Background(), filepath.Join("testdata", "main.rs"))
	require.True(t, ok)
	assert.Equal(t, model.FileStats{Blank: 4, Comment: 7, Code: 6}, res.Stats)

	hs := filepath.Join(dir, "Main.hs")
	require.NoError(t, os.WriteFile(hs, []byte("-- doc\nmain = pure ()\n"), 0o644))
	res, ok = p.ProcessFile(context.Background(), hs)
	require.True(t, ok, "languages without a grammar use the heuristic")
	assert.Equal(t, model.FileStats{Comment: 1, Code: 1}, res.Stats)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 250; i++ {
		p := filepath.Join(dir, fmt.Sprintf("f%03d.py", i))
		require.NoError(t, os.WriteFile(p, []byte("# c\n\nx = 1\n"), 0o644))
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join("testdata", "main.rs"), filepath.Join("testdata", "notes.unknownext"))

	for _, jobs := range []int{0, 1, 8} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			sum, err := newProcessor(t, Options{Jobs: jobs}).Run(context.Background(), paths)
			require.NoError(t, err)

			assert.Equal(t, 252, sum.Scanned)
			assert.Equal(t, 251, sum.Processed)
			assert.Len(t, sum.Results, 251)

			py, ok := sum.Stats.Language("Python")
			require.True(t, ok)
			assert.Equal(t, 250, py.Files)
			assert.Equal(t, model.FileStats{Blank: 250, Comment: 250, Code: 250}, py.Stats)

			files, total := sum.Stats.Total()
			assert.Equal(t, 251, files)
			assert.Equal(t, 750+17, total.Total())
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newProcessor(t, Options{}).Run(ctx, []string{filepath.Join("testdata", "main.rs")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunWithCache(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.go")
	b := filepath.Join(dir, "b.go")
	require.NoError(t, os.WriteFile(a, []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("package b\n// c\n"), 0o644))

	p := newProcessor(t, Options{Cache: c})
	first, err := p.Run(context.Background(), []string{a, b})
	require.NoError(t, err)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	second, err := p.Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, first.Stats.Languages(), second.Stats.Languages())

	// b is no longer part of the run, so its entry goes away.
	_, err = p.Run(context.Background(), []string{a})
	require.NoError(t, err)
	n, err = c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
