// Package report assembles the data behind the HTML report: per-file line
// classes, a browsable file tree and, optionally, Go test coverage.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/cover"

	"github.com/chmouel/sniffy/internal/model"
	"github.com/chmouel/sniffy/internal/processor"
)

// Options configures Build.
type Options struct {
	// Root is the directory file paths are made relative to.
	Root string
	// CoverageProfile is an optional `go test -coverprofile` output.
	CoverageProfile string
}

// Build turns processed files into a Report. Results must have been
// produced with KeepLines set.
func Build(results []processor.Result, opts Options) (*model.Report, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	files := make([]model.FileData, 0, len(results))
	stats := model.NewProjectStats()
	for _, r := range results {
		files = append(files, model.FileData{
			Path:     relPath(root, r.Path),
			Language: r.Language,
			Lines:    r.Lines,
			Classes:  r.Classes,
			Stats:    r.Stats,
		})
		stats.AddFile(r.Language, r.Stats)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for i := range files {
		files[i].ID = i
	}

	rep := &model.Report{
		Files:     files,
		Tree:      buildTree(files),
		Languages: stats.Languages(),
	}

	if opts.CoverageProfile != "" {
		if err := applyCoverage(rep.Files, opts.CoverageProfile, root); err != nil {
			return nil, err
		}
	}
	rep.Summary = summarize(rep.Files)
	return rep, nil
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = p
	}
	return filepath.ToSlash(rel)
}

func summarize(files []model.FileData) model.Summary {
	var s model.Summary
	for _, f := range files {
		s.Files++
		s.Blank += f.Stats.Blank
		s.Comment += f.Stats.Comment
		s.Code += f.Stats.Code
		s.Total += f.Stats.Total()

		if f.Coverage == nil {
			continue
		}
		s.HasCoverage = true
		for i, c := range f.Coverage {
			if c == 0 || i >= len(f.Classes) || f.Classes[i] != model.LineCode {
				continue
			}
			s.StmtLines++
			if c == 2 {
				s.CoveredLines++
			}
		}
	}
	if s.StmtLines > 0 {
		s.CoveredPct = float64(s.CoveredLines) / float64(s.StmtLines) * 100
	}
	return s
}

// applyCoverage attaches per-line coverage from a Go coverage profile to
// the matching Go files.
func applyCoverage(files []model.FileData, profilePath, root string) error {
	profiles, err := cover.ParseProfiles(profilePath)
	if err != nil {
		return fmt.Errorf("parsing coverage profile: %w", err)
	}

	// Without a go.mod, profile names are matched on their path suffix.
	modPath, _ := detectModulePath(root)

	byPath := make(map[string]int, len(files))
	for i, f := range files {
		if f.Language == "Go" {
			byPath[f.Path] = i
		}
	}

	for _, p := range profiles {
		idx, ok := matchProfile(p.FileName, modPath, byPath)
		if !ok {
			continue
		}
		files[idx].Coverage = computeLineCoverage(files[idx].Lines, p.Blocks)
	}
	return nil
}

func matchProfile(name, modPath string, byPath map[string]int) (int, bool) {
	if modPath != "" {
		if rel, found := strings.CutPrefix(name, modPath+"/"); found {
			idx, ok := byPath[rel]
			return idx, ok
		}
	}
	if idx, ok := byPath[name]; ok {
		return idx, true
	}
	// Longest path suffix wins, e.g. "example.com/m/pkg/a.go" -> "pkg/a.go".
	best, bestLen := -1, 0
	for rel, idx := range byPath {
		if strings.HasSuffix(name, "/"+rel) && len(rel) > bestLen {
			best, bestLen = idx, len(rel)
		}
	}
	return best, best >= 0
}

func detectModulePath(srcRoot string) (string, error) {
	goModPath := filepath.Join(srcRoot, "go.mod")
	f, err := os.Open(goModPath) //nolint:gosec // path is from srcRoot argument
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if modPath, found := strings.CutPrefix(line, "module "); found {
			return strings.Trim(strings.TrimSpace(modPath), `"`), nil
		}
	}
	return "", fmt.Errorf("module directive not found in go.mod")
}

// computeLineCoverage returns 0 for lines without statements, 1 for
// uncovered and 2 for covered lines.
func computeLineCoverage(lines []string, blocks []cover.ProfileBlock) []int {
	coverage := make([]int, len(lines))

	for _, b := range blocks {
		for line := b.StartLine; line <= b.EndLine && line <= len(lines); line++ {
			idx := line - 1
			if idx < 0 || idx >= len(coverage) {
				continue
			}
			if b.NumStmt > 0 {
				if b.Count > 0 {
					coverage[idx] = 2
				} else if coverage[idx] == 0 {
					coverage[idx] = 1
				}
			}
		}
	}
	return coverage
}

func buildTree(files []model.FileData) *model.TreeNode {
	root := &model.TreeNode{
		Name:     ".",
		Type:     "dir",
		Children: []*model.TreeNode{},
	}

	for _, f := range files {
		insertPath(root, strings.Split(f.Path, "/"), f.ID)
	}

	sortTree(root)
	return root
}

func insertPath(node *model.TreeNode, parts []string, fileID int) {
	if len(parts) == 0 {
		return
	}

	name := parts[0]
	isFile := len(parts) == 1

	var child *model.TreeNode
	for _, c := range node.Children {
		if c.Name == name {
			child = c
			break
		}
	}

	if child == nil {
		child = &model.TreeNode{Name: name}
		if isFile {
			child.Type = "file"
			id := fileID
			child.FileID = &id
		} else {
			child.Type = "dir"
			child.Children = []*model.TreeNode{}
		}
		node.Children = append(node.Children, child)
	}

	if !isFile {
		insertPath(child, parts[1:], fileID)
	}
}

// sortTree orders directories before files, each by name.
func sortTree(node *model.TreeNode) {
	if node.Children == nil {
		return
	}

	sort.Slice(node.Children, func(i, j int) bool {
		if node.Children[i].Type != node.Children[j].Type {
			return node.Children[i].Type == "dir"
		}
		return node.Children[i].Name < node.Children[j].Name
	})

	for _, c := range node.Children {
		sortTree(c)
	}
}
