package model

// FileData represents a single source file with its line classification.
type FileData struct {
	ID       int        `json:"id"`
	Path     string     `json:"path"` // root-relative path
	Language string     `json:"language"`
	Lines    []string   `json:"lines"`              // source lines
	Classes  []LineType `json:"classes"`            // 0=blank, 1=comment, 2=code
	Coverage []int      `json:"coverage,omitempty"` // 0=no stmt, 1=uncovered, 2=covered
	Stats    FileStats  `json:"stats"`
}

// TreeNode represents a node in the file tree (directory or file).
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"` // "dir" or "file"
	FileID   *int        `json:"fileId,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Summary contains overall line statistics.
type Summary struct {
	Files   int `json:"files"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
	Total   int `json:"total"`

	// Coverage of code lines, only set when a Go coverage profile was given.
	CoveredLines int     `json:"coveredLines,omitempty"`
	StmtLines    int     `json:"stmtLines,omitempty"`
	CoveredPct   float64 `json:"coveredPercent,omitempty"`
	HasCoverage  bool    `json:"hasCoverage"`
}

// Report is the complete data structure passed to the HTML template.
type Report struct {
	Files     []FileData      `json:"files"`
	Tree      *TreeNode       `json:"tree"`
	Summary   Summary         `json:"summary"`
	Languages []LanguageStats `json:"languages"`
}
