package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/chmouel/sniffy/internal/fixture"
)

// Verification statuses.
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// VerifyResult is the verification report of one fixture.
type VerifyResult struct {
	Path       string             `json:"path"`
	Status     string             `json:"status"`
	Expected   *fixture.Counts    `json:"expected,omitempty"`
	Actual     *fixture.Counts    `json:"actual,omitempty"`
	Mismatches []fixture.Mismatch `json:"mismatches,omitempty"`
	Problems   []string           `json:"problems,omitempty"`
}

// Passed reports whether the fixture passed.
func (r VerifyResult) Passed() bool {
	return r.Status == StatusPass
}

// CountFailed returns the number of results that did not pass.
func CountFailed(results []VerifyResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}

// VerifyTable writes one status line per fixture, its mismatches and
// problems indented below it, then a summary line.
func (p *Printer) VerifyTable(results []VerifyResult) error {
	var sb strings.Builder
	for _, r := range results {
		status := p.good.UnsetPadding().Render(r.Status)
		if !r.Passed() {
			status = p.bad.UnsetPadding().Render(r.Status)
		}
		fmt.Fprintf(&sb, "%s  %s", status, r.Path)
		if r.Actual != nil && r.Passed() {
			fmt.Fprintf(&sb, " (blank %d, comment %d, code %d, total %d)",
				r.Actual.Blank, r.Actual.Comment, r.Actual.Code, r.Actual.Total)
		}
		sb.WriteString("\n")
		for _, m := range r.Mismatches {
			fmt.Fprintf(&sb, "      %s\n", m)
		}
		for _, pr := range r.Problems {
			fmt.Fprintf(&sb, "      %s\n", pr)
		}
	}
	failed := CountFailed(results)
	fmt.Fprintf(&sb, "\n%d passed, %d failed\n", len(results)-failed, failed)

	_, err := io.WriteString(p.w, sb.String())
	return err
}

// VerifyJSON writes the results as {"results": [...], "passed": N, "failed": M}.
func VerifyJSON(w io.Writer, results []VerifyResult) error {
	if results == nil {
		results = []VerifyResult{}
	}
	failed := CountFailed(results)
	return writeJSON(w, struct {
		Results []VerifyResult `json:"results"`
		Passed  int            `json:"passed"`
		Failed  int            `json:"failed"`
	}{results, len(results) - failed, failed})
}
